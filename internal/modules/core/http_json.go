package core

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func WriteOK(w http.ResponseWriter, r *http.Request, body interface{}) {
	WriteResponse(w, r, http.StatusOK, body)
}

func WriteBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	WriteResponse(w, r, http.StatusBadRequest, ErrorResponse{Error: message})
}

func WriteNotFound(w http.ResponseWriter, r *http.Request) {
	WriteResponse(w, r, http.StatusNotFound, ErrorResponse{Error: "Not Found"})
}

func WriteMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteResponse(w, r, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method Not Allowed"})
}

func WriteCommandError(w http.ResponseWriter, r *http.Request, err error) {
	var commandErr CommandError
	if !errors.As(err, &commandErr) {
		commandErr = NewCommandError(http.StatusInternalServerError, err)
	}

	WriteResponse(w, r, commandErr.StatusCode, ErrorResponse{Error: commandErr.Message()})
}

func WriteResponse(
	w http.ResponseWriter,
	r *http.Request,
	statusCode int,
	body interface{},
) {
	if body != nil {
		w.Header().Set("Content-Type", "application/json")
	}

	w.WriteHeader(statusCode)
	writeBodyIfPresent(r.Context(), w, body)
}

func writeBodyIfPresent(ctx context.Context, w http.ResponseWriter, body interface{}) {
	if body == nil {
		return
	}

	responseBytes, err := json.Marshal(body)
	if err != nil {
		LogError(ctx, "failed to serialize response", zap.Error(err))
		return
	}

	if _, err := w.Write(responseBytes); err != nil {
		LogError(ctx, "failed to write response", zap.Error(err))
	}
}
