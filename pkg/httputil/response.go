package httputil

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/davoseaworthui/referral-builder-next/pkg/errors"
	"github.com/davoseaworthui/referral-builder-next/pkg/logger"
	"github.com/davoseaworthui/referral-builder-next/pkg/validator"
)

// MessageResponse is the body of every non-data response: errors and
// acknowledgements such as {"message":"Referral deleted successfully"}.
type MessageResponse struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// WriteJSON writes v as JSON with the given status code. A value that cannot
// be encoded becomes a bare 500.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// WriteMessage writes a {"message": ...} body.
func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, MessageResponse{Message: message})
}

// WriteError classifies err with apperrors.From and writes its status and
// public message. Server faults are logged through the request-scoped logger,
// or fallback when the request carries none.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	appErr := apperrors.From(err)
	if appErr.Status >= http.StatusInternalServerError {
		l := logger.FromContext(r.Context())
		if l == slog.Default() && fallback != nil {
			l = fallback
		}
		l.ErrorContext(r.Context(), "request failed",
			slog.Int("status", appErr.Status),
			slog.String("error", err.Error()),
		)
	}
	WriteMessage(w, appErr.Status, appErr.Message)
}

// WriteValidationError writes a 400. Field errors from the validator package
// are listed under "fields".
func WriteValidationError(w http.ResponseWriter, err error) {
	resp := MessageResponse{Message: err.Error()}

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		resp = MessageResponse{Message: "request validation failed", Fields: valErr.Fields()}
	}
	WriteJSON(w, http.StatusBadRequest, resp)
}
