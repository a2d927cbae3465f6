package spendflow

import (
	"github.com/Samson397/spendflow-core/spendflow/validation"
)

// Response represents a business error with code, title, and message.
// It is the canonical error body returned by the HTTP boundary.
type Response struct {
	Code    string `json:"code,omitempty"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
	Err     error  `json:"err,omitempty"`
}

func (e Response) Error() string {
	return e.Message
}

// ResponseFromFailure converts a validation failure into the business error
// Response returned to clients. The failure already carries a display-ready
// title and message, so no further translation happens here.
func ResponseFromFailure(f *validation.Failure) Response {
	if f == nil {
		return Response{}
	}

	return Response{
		Code:    string(f.Kind),
		Title:   f.Title,
		Message: f.Message,
	}
}
