package core

import (
	"context"
	"net/http"
	"strings"
)

type Validator interface {
	Validate() error
}

type ValidationError struct {
	ValidationErrors []error
}

func (e ValidationError) Error() string {
	messages := make([]string, 0, len(e.ValidationErrors))
	for _, err := range e.ValidationErrors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

var _ PipelineBehavior = (*RequestValidationBehavior)(nil)

type RequestValidationBehavior struct{}

func (b *RequestValidationBehavior) Handle(
	ctx context.Context,
	request interface{},
	next RequestHandlerFunc,
) (interface{}, error) {
	if request, ok := request.(Validator); ok {
		if err := request.Validate(); err != nil {
			return nil, NewCommandError(http.StatusBadRequest, err, WithReason(err.Error()))
		}
	}

	return next(ctx, request)
}
