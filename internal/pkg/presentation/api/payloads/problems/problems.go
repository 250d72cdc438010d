package problems

import (
	"encoding/json"
	"errors"
	"net/http"

	dmerrors "github.com/diwise/iot-sample-payload/pkg/devicemodel/errors"
)

// ProblemDetails stores details about a certain problem according to RFC7807
// See https://tools.ietf.org/html/rfc7807
type ProblemDetails struct {
	typ    string
	title  string
	detail string
	code   int
}

const (
	// ProblemReportContentType as required by https://tools.ietf.org/html/rfc7807
	ProblemReportContentType string = "application/problem+json"

	typePrefix string = "https://diwise.io/problems/sample-payload/"
)

func newProblem(typ, title, detail string, code int) *ProblemDetails {
	return &ProblemDetails{
		typ:    typePrefix + typ,
		title:  title,
		detail: detail,
		code:   code,
	}
}

func NewNotFound(detail string) *ProblemDetails {
	return newProblem("ResourceNotFound", "Not Found", detail, http.StatusNotFound)
}

// NewUnknownTenant is reported with 404, the same way as an unknown resource.
func NewUnknownTenant(detail string) *ProblemDetails {
	return newProblem("NonexistentTenant", "Non Existent Tenant", detail, http.StatusNotFound)
}

// NewBadGateway reports that the device model service could not be reached or
// answered with something unexpected.
func NewBadGateway(detail string) *ProblemDetails {
	return newProblem("BadGateway", "Bad Gateway", detail, http.StatusBadGateway)
}

func NewInternalError(detail string) *ProblemDetails {
	return newProblem("InternalError", "Internal Error", detail, http.StatusInternalServerError)
}

// FromError maps an error returned by the device model client, or the
// application on top of it, to the matching problem.
func FromError(err error) *ProblemDetails {
	switch {
	case errors.Is(err, dmerrors.ErrUnknownTenant):
		return NewUnknownTenant(err.Error())
	case errors.Is(err, dmerrors.ErrNotFound):
		return NewNotFound(err.Error())
	case errors.Is(err, dmerrors.ErrUnauthorized), errors.Is(err, dmerrors.ErrRequest), errors.Is(err, dmerrors.ErrBadResponse):
		return NewBadGateway(err.Error())
	}

	return NewInternalError(err.Error())
}

func (p *ProblemDetails) ContentType() string {
	return ProblemReportContentType
}

func (p *ProblemDetails) Type() string   { return p.typ }
func (p *ProblemDetails) Title() string  { return p.title }
func (p *ProblemDetails) Detail() string { return p.detail }

func (p *ProblemDetails) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   string `json:"type"`
		Title  string `json:"title"`
		Status int    `json:"status"`
		Detail string `json:"detail"`
	}{
		Type:   p.typ,
		Title:  p.title,
		Status: p.ResponseCode(),
		Detail: p.detail,
	})
}

// ResponseCode returns the HTTP response code to be used when returning a specific problem
func (p *ProblemDetails) ResponseCode() int {
	if p.code != 0 {
		return p.code
	}

	return http.StatusBadRequest
}

// WriteResponse writes the contents of this instance to a http.ResponseWriter
func (p *ProblemDetails) WriteResponse(w http.ResponseWriter) {
	w.Header().Add("Content-Type", p.ContentType())
	w.Header().Add("Content-Language", "en")
	w.WriteHeader(p.ResponseCode())

	pdbytes, err := json.MarshalIndent(p, "", "  ")
	if err == nil {
		w.Write(pdbytes)
	}
}
