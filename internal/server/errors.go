package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/spigell/lendmatch/internal/assistant"
	"github.com/spigell/lendmatch/internal/matching"
	"github.com/spigell/lendmatch/internal/store"
)

// ErrValidation indicates a request that failed validation.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrBadRequest wraps a request body that could not be decoded.
type ErrBadRequest struct {
	Err error
}

func (e *ErrBadRequest) Error() string { return fmt.Sprintf("invalid request body: %v", e.Err) }

func (e *ErrBadRequest) Unwrap() error { return e.Err }

// HTTPStatus returns the status code for an error returned by a handler dependency.
func HTTPStatus(err error) int {
	var (
		validationErr *ErrValidation
		badRequestErr *ErrBadRequest
		fieldErrs     validator.ValidationErrors
		syntaxErr     *json.SyntaxError
	)

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validationErr),
		errors.As(err, &badRequestErr),
		errors.As(err, &fieldErrs),
		errors.As(err, &syntaxErr),
		errors.Is(err, assistant.ErrEmptyMessage),
		errors.Is(err, matching.ErrInvalidPartner):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

func newErrorBody(err error) errorBody {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		body := errorBody{Message: "validation failed"}
		for _, fe := range fieldErrs {
			body.Errors = append(body.Errors, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
		}
		return body
	}
	return errorBody{Message: err.Error()}
}
