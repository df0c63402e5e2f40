package remote

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/concepto-studio/concepto/pkg/catalog"
)

// Error codes reported by the external API or synthesised by the client.
const (
	CodeInvalidEndpoint = "INVALID_ENDPOINT"
	CodeInvalidJSON     = "INVALID_JSON"
	CodeNetworkError    = "NETWORK_ERROR"
	CodeHTTPError       = "HTTP_ERROR"
	CodeUnknown         = "UNKNOWN_ERROR"
)

// APIError is the decoded error envelope {error, code, details}.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    string
	Err        error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("concepto api %s: %s", e.Code, e.Message)
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is lets a 404 satisfy errors.Is(err, catalog.ErrNotFound).
func (e *APIError) Is(target error) bool {
	return target == catalog.ErrNotFound && e.StatusCode == http.StatusNotFound
}

// IsCode reports whether err is an APIError carrying code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}
