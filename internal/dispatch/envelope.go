package dispatch

import (
	"errors"
	"time"

	"github.com/softgrove/graft/internal/model"
)

// Envelope is the uniform result of one dispatched operation.
type Envelope struct {
	OK     bool       `json:"ok"`
	Actor  string     `json:"actor,omitempty"`
	TS     time.Time  `json:"ts"`
	Result any        `json:"result,omitempty"`
	Error  *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo is the failure half of an envelope: the taxonomy kind plus
// the message, surfaced verbatim from the domain error.
type ErrorInfo struct {
	Kind    string            `json:"kind"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// errorInfo converts any error into envelope form. Taxonomy errors keep
// their kind, message, and details; foreign errors become internal with
// the message preserved so operators can still see what broke.
func errorInfo(err error) *ErrorInfo {
	var de *model.Error
	if errors.As(err, &de) {
		return &ErrorInfo{
			Kind:    string(de.Kind),
			Message: de.Message,
			Details: de.Details,
		}
	}
	return &ErrorInfo{
		Kind:    string(model.ErrInternal),
		Message: err.Error(),
	}
}
