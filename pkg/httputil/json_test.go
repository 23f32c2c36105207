package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matzehuels/nmcanvas/pkg/errors"
)

type detailedError struct{ err *errors.Error }

func (d detailedError) Error() string { return d.err.Error() }
func (d detailedError) Unwrap() error { return d.err }
func (detailedError) Details() []string { return []string{"/nodes/0: bad"} }

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   errors.Code
		wantErrors int
	}{
		{"coded", errors.New(errors.ErrCodeDuplicateID, "node %q exists", "n1"), http.StatusConflict, errors.ErrCodeDuplicateID, 0},
		{"wrapped", fmt.Errorf("load: %w", errors.New(errors.ErrCodeFileNotFound, "gone")), http.StatusNotFound, errors.ErrCodeFileNotFound, 0},
		{"plain", fmt.Errorf("boom"), http.StatusInternalServerError, errors.ErrCodeInternal, 0},
		{"details", detailedError{errors.New(errors.ErrCodeSchemaValidationFailed, "invalid")}, http.StatusUnprocessableEntity, errors.ErrCodeSchemaValidationFailed, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			if err := WriteError(rec, tt.err); err != nil {
				t.Fatal(err)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Code != tt.wantCode || len(resp.Errors) != tt.wantErrors || resp.Message == "" {
				t.Errorf("response = %+v", resp)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
		code errors.Code
	}{
		{"valid", `{"base": "model"}`, ""},
		{"malformed", `{"base":`, errors.ErrCodeInvalidFormat},
		{"trailing", `{"base": "a"} {"base": "b"}`, errors.ErrCodeInvalidFormat},
		{"too large", `{"base": "` + strings.Repeat("x", MaxBodyBytes) + `"}`, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var v struct{ Base string }
			err := DecodeJSON(req, &v)
			if tt.code == "" {
				if err != nil || v.Base != "model" {
					t.Errorf("DecodeJSON = %v, %+v", err, v)
				}
				return
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}
