package errors

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// Problem type URIs following RFC 7807
const (
	TypeValidation = "/errors/validation"
	TypeNotFound   = "/errors/not-found"
	TypeRateLimit  = "/errors/rate-limit"
	TypeInternal   = "/errors/internal"

	TypeDataUnreadable = "/errors/data/unreadable"
	TypeDataMissing    = "/errors/data/missing-column"
)

// ProblemDetails is an RFC 7807 problem response body.
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	TraceID  string `json:"trace_id,omitempty"`
}

// Render implements render.Renderer, setting the HTTP status code.
func (p *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, p.Status)
	return nil
}

// NewProblemDetails creates a new problem details response
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:     problemType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	}
}

// WriteProblem renders a problem details response, attaching the request ID
// as the trace id.
func WriteProblem(w http.ResponseWriter, r *http.Request, p *ProblemDetails) {
	p.TraceID = middleware.GetReqID(r.Context())
	render.Render(w, r, p)
}

// ProblemFromError converts any error to RFC 7807 problem details. AppError
// types map to specific problem types and status codes; everything else
// becomes an internal error.
func ProblemFromError(err error, r *http.Request) *ProblemDetails {
	instance := ""
	if r != nil && r.URL != nil {
		instance = r.URL.Path
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case ErrTypeNotFound:
			return NewProblemDetails(http.StatusNotFound, TypeNotFound,
				"Not Found", appErr.Message, instance)
		case ErrTypeValidation:
			return NewProblemDetails(http.StatusBadRequest, TypeValidation,
				"Validation Failed", appErr.Message, instance)
		case ErrTypeParsing:
			return NewProblemDetails(http.StatusUnprocessableEntity, TypeDataMissing,
				"Input Not Parseable", appErr.Message, instance)
		case ErrTypeStorage:
			return NewProblemDetails(http.StatusServiceUnavailable, TypeDataUnreadable,
				"Input Not Readable", appErr.Message, instance)
		}
	}

	return NewProblemDetails(http.StatusInternalServerError, TypeInternal,
		"Internal Server Error", "An unexpected error occurred", instance)
}
