// Package shared holds the JSON response helpers every handler uses.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "meridian/pkg/domain-errors"
)

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON writes a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// WriteError translates a domain error into its HTTP shape. Unclassified
// errors surface as 500 with a generic message so internals never leak.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	message := "internal error"
	var de *dErrors.DomainError
	if errors.As(err, &de) {
		message = de.Message
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), errorEnvelope{
		Error: errorBody{Code: string(code), Message: message},
	})
}
