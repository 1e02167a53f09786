package delegatesdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error codes written by the service.
const (
	ErrorCodeInvalidRequest = "invalid_request"
	ErrorCodeValidation     = "validation_error"
	ErrorCodeInvalidToken   = "invalid_token"
	ErrorCodeForbidden      = "forbidden"
	ErrorCodeNotFound       = "not_found"
	ErrorCodeLedgerRejected = "ledger_rejected"
	ErrorCodeLedgerError    = "ledger_error"
	ErrorCodeLedgerTimeout  = "ledger_timeout"
	ErrorCodeSigningError   = "signing_error"
	ErrorCodeRateLimited    = "rate_limit_exceeded"
	ErrorCodeServerError    = "server_error"
)

// APIError is a failed call as reported by the service.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
	Reason      string
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s (%d): %s: %s", e.Code, e.StatusCode, e.Description, e.Reason)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Description)
}

func hasCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

func IsNotFound(err error) bool     { return hasCode(err, ErrorCodeNotFound) }
func IsForbidden(err error) bool    { return hasCode(err, ErrorCodeForbidden) }
func IsValidation(err error) bool   { return hasCode(err, ErrorCodeValidation) }
func IsUnauthorized(err error) bool { return hasCode(err, ErrorCodeInvalidToken) }

// IsLedgerRejected reports whether the ledger reverted the write.
func IsLedgerRejected(err error) bool { return hasCode(err, ErrorCodeLedgerRejected) }

// parseErrorResponse builds an APIError from a non-success response.
func parseErrorResponse(resp *http.Response, body []byte) error {
	var er ErrorResponse
	if err := json.Unmarshal(body, &er); err != nil || er.Error == "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        ErrorCodeServerError,
			Description: http.StatusText(resp.StatusCode),
		}
	}
	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        er.Error,
		Description: er.ErrorDescription,
		Reason:      er.Reason,
	}
}
