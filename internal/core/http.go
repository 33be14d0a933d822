package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const maxRequestBody = 1 << 20

// DecodeJSON reads a single JSON object from the request body into dst.
// Malformed bodies come back as validation errors.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		var maxErr *http.MaxBytesError

		switch {
		case errors.Is(err, io.EOF):
			return NewValidationError("Request body must not be empty", nil)
		case errors.As(err, &syntaxErr):
			return NewValidationError(fmt.Sprintf("Request body contains malformed JSON at offset %d", syntaxErr.Offset), nil)
		case errors.As(err, &typeErr):
			return NewValidationError("Request body contains a value of the wrong type", map[string]string{typeErr.Field: "wrong type"})
		case errors.As(err, &maxErr):
			return NewValidationError("Request body is too large", nil)
		default:
			return NewValidationError("Request body could not be decoded", nil)
		}
	}

	if dec.More() {
		return NewValidationError("Request body must contain a single JSON object", nil)
	}
	return nil
}
