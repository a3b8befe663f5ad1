package core

import (
	"context"
	"fmt"
)

type RequestHandler[TRequest any, TResponse any] interface {
	Handle(ctx context.Context, request TRequest) (TResponse, error)
}

type RequestHandlerFunc func(ctx context.Context, request interface{}) (interface{}, error)

type PipelineBehavior interface {
	Handle(ctx context.Context, request interface{}, next RequestHandlerFunc) (interface{}, error)
}

// Pipeline wraps request handlers with cross-cutting behaviors. Behaviors run
// in registration order, the first one being the outermost.
type Pipeline struct {
	behaviors []PipelineBehavior
}

func NewPipeline(behaviors ...PipelineBehavior) *Pipeline {
	return &Pipeline{behaviors: behaviors}
}

func Send[TRequest any, TResponse any](
	ctx context.Context,
	p *Pipeline,
	handler RequestHandler[TRequest, TResponse],
	request TRequest,
) (TResponse, error) {
	var next RequestHandlerFunc = func(ctx context.Context, req interface{}) (interface{}, error) {
		typed, ok := req.(TRequest)
		if !ok {
			return nil, fmt.Errorf("unexpected request type %T", req)
		}
		return handler.Handle(ctx, typed)
	}

	if p != nil {
		for i := len(p.behaviors) - 1; i >= 0; i-- {
			behavior, inner := p.behaviors[i], next
			next = func(ctx context.Context, req interface{}) (interface{}, error) {
				return behavior.Handle(ctx, req, inner)
			}
		}
	}

	var response TResponse

	result, err := next(ctx, request)
	if result != nil {
		typed, ok := result.(TResponse)
		if !ok {
			return response, fmt.Errorf("unexpected response type %T", result)
		}
		response = typed
	}

	return response, err
}
