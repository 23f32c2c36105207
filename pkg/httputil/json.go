package httputil

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/matzehuels/nmcanvas/pkg/errors"
)

// MaxBodyBytes caps request bodies read by DecodeJSON.
const MaxBodyBytes = 8 << 20

// ErrorResponse is the JSON body written by WriteError.
type ErrorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
	Errors  []string    `json:"errors,omitempty"`
}

// WriteJSON writes v as indented JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteError writes err as an ErrorResponse.
func WriteError(w http.ResponseWriter, err error) error {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	resp := ErrorResponse{Code: code, Message: errors.UserMessage(err)}

	var detailed interface{ Details() []string }
	if stderrors.As(err, &detailed) {
		resp.Errors = detailed.Details()
	}
	return WriteJSON(w, StatusFor(code), resp)
}

// StatusFor maps an error code to an HTTP status.
func StatusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeSchemaValidationFailed:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidInput, errors.ErrCodeInvalidOperation,
		errors.ErrCodeInvalidPath, errors.ErrCodeUnrecognizedOperation:
		return http.StatusBadRequest
	case errors.ErrCodeDuplicateID:
		return http.StatusConflict
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound, errors.ErrCodeSnapshotNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSON decodes the request body into v.
func DecodeJSON(r *http.Request, v any) error {
	body := http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "request body exceeds %d bytes", MaxBodyBytes)
		}
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request body")
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New(errors.ErrCodeInvalidFormat, "request body has trailing data")
	}
	return nil
}
