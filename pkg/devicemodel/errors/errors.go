package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

var ErrBadResponse = fmt.Errorf("bad response")
var ErrInternal = fmt.Errorf("internal error")
var ErrNotFound = fmt.Errorf("not found")
var ErrRequest = fmt.Errorf("request error")
var ErrUnauthorized = fmt.Errorf("unauthorized")
var ErrUnknownTenant = fmt.Errorf("unknown tenant")

type myError struct {
	msg    string
	target error
}

func (m myError) Error() string        { return m.msg }
func (m myError) Is(target error) bool { return target == m.target }

func NewBadResponseError(msg string) error {
	return &myError{
		msg:    msg,
		target: ErrBadResponse,
	}
}

func NewInternalError(msg string) error {
	return &myError{
		msg:    msg,
		target: ErrInternal,
	}
}

func NewNotFoundError(msg string) error {
	return &myError{
		msg:    msg,
		target: ErrNotFound,
	}
}

func NewUnauthorizedError(msg string) error {
	return &myError{
		msg:    msg,
		target: ErrUnauthorized,
	}
}

func NewUnknownTenantError(tenant string) error {
	return &myError{
		msg:    fmt.Sprintf("unknown tenant \"%s\"", tenant),
		target: ErrUnknownTenant,
	}
}

// NewErrorFromResponse maps a failed response from the device model service to
// one of the sentinel errors in this package. The service reports failures as
// {"code": <status>, "message": "<text>"} but any body is accepted.
func NewErrorFromResponse(code int, contentType string, body []byte) error {
	detail := string(body)

	if strings.HasPrefix(contentType, "application/json") {
		report := &struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		}{}

		if err := json.Unmarshal(body, report); err == nil && report.Message != "" {
			detail = report.Message
		}
	}

	switch {
	case code == http.StatusNotFound:
		return NewNotFoundError(detail)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return NewUnauthorizedError(detail)
	case code >= http.StatusBadRequest && code < http.StatusInternalServerError:
		return NewBadResponseError(fmt.Sprintf("[code: %d] %s", code, detail))
	}

	return NewInternalError(fmt.Sprintf("[code: %d] %s", code, detail))
}
