package server

import (
	"encoding/json"
	"errors"
	"net/http"

	swimdata "github.com/PeterK-end/swim-data-analyser"
	"github.com/PeterK-end/swim-data-analyser/fitcodec"
	"github.com/PeterK-end/swim-data-analyser/store"
)

var (
	errNotSwim      = errors.New("not a pool swimming activity")
	errBadExtension = errors.New("only .fit files are allowed for upload")
)

// requestError carries the status a handler wants and a short label for the
// "error" field of the response body.
type requestError struct {
	status int
	label  string
	err    error
}

func (e *requestError) Error() string { return e.err.Error() }

func (e *requestError) Unwrap() error { return e.err }

func badRequest(label string, err error) error {
	return &requestError{status: http.StatusBadRequest, label: label, err: err}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// classify maps err to a status code and response label.
func classify(err error) (int, string) {
	var re *requestError
	if errors.As(err, &re) {
		return re.status, re.label
	}

	var enumErr *fitcodec.EnumError
	var overflow *fitcodec.OverflowError

	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, swimdata.ErrNoActiveSession):
		return http.StatusNotFound, "Session not found"
	case errors.Is(err, swimdata.ErrIndexOutOfRange), errors.Is(err, swimdata.ErrEmptySelection):
		return http.StatusUnprocessableEntity, "Invalid selection"
	case errors.As(err, &enumErr), errors.As(err, &overflow):
		return http.StatusUnprocessableEntity, "Invalid field value"
	case errors.Is(err, swimdata.ErrDocumentTooLarge):
		return http.StatusRequestEntityTooLarge, "Document too large"
	case errors.Is(err, fitcodec.ErrMalformedHeader),
		errors.Is(err, fitcodec.ErrTruncatedRecord),
		errors.Is(err, fitcodec.ErrUndefinedLocalType),
		errors.Is(err, fitcodec.ErrUnknownMessageType):
		return http.StatusBadRequest, "Failed to parse file"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) int {
	status, label := classify(err)
	writeJSON(w, status, errorBody{Error: label, Message: err.Error()})

	return status
}
