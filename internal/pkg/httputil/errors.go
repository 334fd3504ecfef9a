package httputil

import (
	"context"
	"errors"
	"net/http"

	"github.com/rxdesk/pharmacy-api/internal/pkg/ctxlog"
)

// ErrorMapping binds a domain error to an HTTP status.
type ErrorMapping struct {
	Error  error
	Status int
	// Message replaces err.Error() in the response when set.
	Message string
}

// HandleError writes the response for the first mapping err matches.
// Bodies cut off by http.MaxBytesReader become 413. Anything else is logged and
// answered with a generic 500 so internal details never reach the client.
func HandleError(ctx context.Context, w http.ResponseWriter, err error, mappings []ErrorMapping) {
	for _, m := range mappings {
		if !errors.Is(err, m.Error) {
			continue
		}
		msg := m.Message
		if msg == "" {
			msg = err.Error()
		}
		ctxlog.FromContext(ctx).Debug("request rejected", "status", m.Status, "error", err)
		Error(w, m.Status, msg)
		return
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		Error(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	ctxlog.FromContext(ctx).Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, "internal error")
}
