package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured error response shared between the core and
// its host transport. The core raises these for malformed-input conditions;
// data-quality outcomes (an unsupported claim, a missing fact) stay ordinary
// result values.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Predefined error types for common scenarios
var (
	// 400 Bad Request
	ErrInvalidParameter       = New(http.StatusBadRequest, "INVALID_PARAMETER", "Invalid parameter value")
	ErrInvalidAccessionFormat = New(http.StatusBadRequest, "INVALID_ACCESSION_FORMAT", "Accession number does not match the required format")

	// 404 Not Found
	ErrMappingNotFound = New(http.StatusNotFound, "MAPPING_NOT_FOUND", "Metric has no taxonomy concept mapping")
	ErrFactNotFound    = New(http.StatusNotFound, "FACT_NOT_FOUND", "No filed data for the mapped concepts")

	// 422 Unprocessable Entity
	ErrUnsupportedUnitKind = New(http.StatusUnprocessableEntity, "UNSUPPORTED_UNIT_KIND", "Non-monetary units in monetary expression")

	// 500 Internal Server Error
	ErrInternalServer = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
)

// code reports the machine error code of err when it is an APIError
func code(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode
	}
	return ""
}

// IsNotFound reports whether err is a recoverable absent-result error
// (mapping or fact not found)
func IsNotFound(err error) bool {
	c := code(err)
	return c == "MAPPING_NOT_FOUND" || c == "FACT_NOT_FOUND"
}

// IsInvalidAccession reports whether err is a malformed accession pin
func IsInvalidAccession(err error) bool {
	return code(err) == "INVALID_ACCESSION_FORMAT"
}

// IsUnsupportedUnit reports whether err is a unit-guard violation
func IsUnsupportedUnit(err error) bool {
	return code(err) == "UNSUPPORTED_UNIT_KIND"
}

// MappingNotFound creates a MAPPING_NOT_FOUND error for a metric/standard pair
func MappingNotFound(metric, standard string) *APIError {
	return NewWithDetails(http.StatusNotFound, "MAPPING_NOT_FOUND",
		fmt.Sprintf("no %s concept mapping for metric %q", standard, metric),
		map[string]string{"metric": metric, "standard": standard})
}

// FactNotFound creates a FACT_NOT_FOUND error for a ticker/metric pair
func FactNotFound(ticker, metric string) *APIError {
	return NewWithDetails(http.StatusNotFound, "FACT_NOT_FOUND",
		fmt.Sprintf("no filed data for %s %s", ticker, metric),
		map[string]string{"ticker": ticker, "metric": metric})
}

// InvalidAccession creates an INVALID_ACCESSION_FORMAT error for a bad pin
func InvalidAccession(accession string) *APIError {
	return NewWithDetails(http.StatusBadRequest, "INVALID_ACCESSION_FORMAT",
		fmt.Sprintf("accession %q does not match NNNNNNNNNN-NN-NNNNNN", accession),
		map[string]string{"accession": accession})
}

// UnsupportedUnits creates an UNSUPPORTED_UNIT_KIND error enumerating the
// offending variable/unit pairs of a monetary expression
func UnsupportedUnits(offenders map[string]string) *APIError {
	return NewWithDetails(http.StatusUnprocessableEntity, "UNSUPPORTED_UNIT_KIND",
		"non-monetary units found in monetary expression",
		map[string]interface{}{
			"offending_inputs": offenders,
			"supported_units":  "monetary units (USD, EUR, ...)",
		})
}
