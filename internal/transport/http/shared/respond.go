package shared

import (
	"encoding/json"
	"net/http"

	domainerrors "clinicdesk/pkg/domain-errors"
)

// errorEnvelope is the JSON body every failed request gets. Fields is set
// only for validation failures, keyed by field name with the ordered
// violation kinds, so clients can render inline messages.
type errorEnvelope struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a coded domain error into the shared envelope.
func WriteError(w http.ResponseWriter, err error) {
	code := domainerrors.CodeOf(err)
	WriteJSON(w, statusOf(code), errorEnvelope{
		Error:  string(code),
		Fields: domainerrors.FieldsOf(err),
	})
}

func statusOf(code domainerrors.Code) int {
	switch code {
	case domainerrors.CodeValidation:
		return http.StatusUnprocessableEntity
	case domainerrors.CodeNotFound:
		return http.StatusNotFound
	case domainerrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case domainerrors.CodeBadRequest:
		return http.StatusBadRequest
	case domainerrors.CodeConflict:
		return http.StatusConflict
	case domainerrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
