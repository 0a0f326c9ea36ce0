package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MaxRequestBodySize caps request bodies at 1 MiB.
const MaxRequestBodySize = 1 << 20

var (
	ErrEmptyBody      = errors.New("request body is empty")
	ErrMultipleValues = errors.New("request body contains multiple JSON objects")
)

// DecodeJSON reads exactly one JSON object of type T from the request body.
// Unknown fields, trailing values and bodies over MaxRequestBodySize are
// rejected with a message safe to return to the client.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	var v T

	body := http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	defer body.Close()

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&v); err != nil {
		var zero T
		return zero, describeDecodeError(err)
	}
	if dec.More() {
		var zero T
		return zero, ErrMultipleValues
	}
	return v, nil
}

func describeDecodeError(err error) error {
	var (
		syntaxErr   *json.SyntaxError
		typeErr     *json.UnmarshalTypeError
		maxBytesErr *http.MaxBytesError
	)

	switch {
	case errors.Is(err, io.EOF):
		return ErrEmptyBody
	case errors.Is(err, io.ErrUnexpectedEOF):
		return errors.New("malformed JSON: unexpected end of body")
	case errors.As(err, &syntaxErr):
		return fmt.Errorf("malformed JSON at position %d", syntaxErr.Offset)
	case errors.As(err, &typeErr):
		return fmt.Errorf("invalid value for field %q", typeErr.Field)
	case errors.As(err, &maxBytesErr):
		return fmt.Errorf("request body too large (max %d bytes)", maxBytesErr.Limit)
	default:
		// DisallowUnknownFields reports `json: unknown field "x"`.
		return fmt.Errorf("failed to decode JSON: %w", err)
	}
}
