package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/jeduden/bmad-pokedex/internal/errors"
)

// APIError is the error body for failures raised by huma itself: request
// validation, unknown methods and the like. Domain errors are written as-is
// and share the same shape.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`

	Retryable bool `json:"retryable" doc:"Whether repeating the same request may succeed"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// Where a 404 came from: a lookup upstream did not know, or a path this
// server does not serve.
var (
	fromPokemon = map[string]string{"from": "pokemon"}
	fromRoute   = map[string]string{"from": "route"}
)

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		var fields []string
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return &APIError{
					status:  domainErr.HTTPStatus(),
					Code:    string(domainErr.Code),
					Message: domainErr.Message,
					Details: domainErr.Details,

					Retryable: domainErr.Code.Retryable(),
				}
			}

			var detail *huma.ErrorDetail
			if errors.As(err, &detail) {
				fields = append(fields, detail.Error())
			}
		}

		apiErr := &APIError{
			status:  status,
			Code:    statusToCode(status),
			Message: message,
		}
		if len(fields) > 0 {
			apiErr.Details = map[string]any{"errors": fields}
		}
		return apiErr
	}
}

// lookupMiss marks a NOT_FOUND from an entity lookup so clients can tell it
// apart from an unknown route.
func lookupMiss(err error) error {
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) && domainErr.Code == domainerrors.CodeNotFound {
		return domainErr.WithDetails(fromPokemon)
	}
	return err
}

// statusToCode maps HTTP status codes to our domain error codes.
func statusToCode(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return string(domainerrors.CodeValidation)
	case http.StatusNotFound:
		return string(domainerrors.CodeNotFound)
	case http.StatusTooManyRequests:
		return string(domainerrors.CodeRateLimited)
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	default:
		return string(domainerrors.CodeInternal)
	}
}

// writeError writes err as a JSON error body outside of huma.
func writeError(w http.ResponseWriter, err *domainerrors.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus())
	_ = json.NewEncoder(w).Encode(err)
}
