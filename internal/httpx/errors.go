package httpx

import (
	"net/http"

	"github.com/sundayezeilo/shortlink/internal/errx"
)

type kindResponse struct {
	status int
	code   string
}

var kindResponses = map[errx.Kind]kindResponse{
	errx.NotFound:    {http.StatusNotFound, "not_found"},
	errx.Conflict:    {http.StatusConflict, "conflict"},
	errx.Invalid:     {http.StatusBadRequest, "invalid_input"},
	errx.Exhausted:   {http.StatusServiceUnavailable, "retries_exhausted"},
	errx.Unavailable: {http.StatusServiceUnavailable, "unavailable"},
}

var internalResponse = kindResponse{http.StatusInternalServerError, "internal_error"}

func responseFor(kind errx.Kind) kindResponse {
	if r, ok := kindResponses[kind]; ok {
		return r
	}
	return internalResponse
}

// ErrorKindToStatus maps an error kind to its HTTP status. Unmapped kinds are 500.
func ErrorKindToStatus(kind errx.Kind) int {
	return responseFor(kind).status
}

// ErrorKindToCode maps an error kind to the "error" field of the response body.
func ErrorKindToCode(kind errx.Kind) string {
	return responseFor(kind).code
}

func WriteKindError(w http.ResponseWriter, kind errx.Kind, message string) {
	r := responseFor(kind)
	WriteError(w, r.status, r.code, message)
}
