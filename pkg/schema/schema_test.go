package schema

import (
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/nmcanvas/pkg/errors"
)

const validDoc = `{
	"version": "1.0.0",
	"nodes": [
		{"id": "r1", "kind": "route", "label": "Public API", "doc": "docs/r1.md"},
		{"id": "s1", "kind": "service", "label": "Orders", "metadata": {"replicas": 3}}
	],
	"edges": [
		{"id": "e1", "from": "r1", "to": "s1", "kind": "route_to_service", "constraints": {"timeout_ms": 250}}
	],
	"metadata": {"version": "1", "environment": "staging", "updatedAt": "2025-01-02T03:04:05Z", "team": "platform"}
}`

func mustDefault(t *testing.T) *Validator {
	t.Helper()
	v, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	return v
}

func TestDefaultAcceptsValidDocument(t *testing.T) {
	v := mustDefault(t)
	if err := v.ValidateBytes([]byte(validDoc)); err != nil {
		t.Fatalf("ValidateBytes: %v", err)
	}
	if v.Source() != "embedded" {
		t.Errorf("Source = %q, want embedded", v.Source())
	}
}

func TestValidateReportsEveryError(t *testing.T) {
	v := mustDefault(t)
	doc := `{
		"version": "1",
		"nodes": [{"id": "n1", "kind": "gateway", "label": "x"}],
		"edges": [{"id": "e1", "from": "n1", "kind": "depends_on"}]
	}`

	err := v.ValidateBytes([]byte(doc))
	if err == nil {
		t.Fatal("expected validation failure")
	}
	vf, ok := err.(*ValidationFailedError)
	if !ok {
		t.Fatalf("error type = %T, want *ValidationFailedError", err)
	}
	if len(vf.Errors) < 2 {
		t.Fatalf("got %d errors, want at least 2: %v", len(vf.Errors), vf.Details())
	}

	paths := map[string]bool{}
	for _, e := range vf.Errors {
		paths[e.Path] = true
		if e.Reason == "" {
			t.Errorf("empty reason for %s", e.Path)
		}
	}
	for _, want := range []string{"/nodes/0/kind", "/edges/0"} {
		if !paths[want] {
			t.Errorf("missing error at %s; got %v", want, vf.Details())
		}
	}

	if !errors.Is(err, errors.ErrCodeSchemaValidationFailed) {
		t.Error("errors.Is(SCHEMA_VALIDATION_FAILED) = false")
	}
	if !strings.Contains(err.Error(), "failed validation") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestValidateCases(t *testing.T) {
	v := mustDefault(t)

	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{"minimal", `{"version":"1","nodes":[],"edges":[]}`, false},
		{"missing edges", `{"version":"1","nodes":[]}`, true},
		{"unknown top-level field", `{"version":"1","nodes":[],"edges":[],"extra":1}`, true},
		{"empty node id", `{"version":"1","nodes":[{"id":"","kind":"route","label":""}],"edges":[]}`, true},
		{"metadata must be object", `{"version":"1","nodes":[{"id":"a","kind":"route","label":"","metadata":[1]}],"edges":[]}`, true},
		{"bad date-time format", `{"version":"1","nodes":[],"edges":[],"metadata":{"version":"1","updatedAt":"yesterday"}}`, true},
		{"bad email format", `{"version":"1","nodes":[],"edges":[],"metadata":{"version":"1","owner":"nobody"}}`, true},
		{"metadata open fields", `{"version":"1","nodes":[],"edges":[],"metadata":{"version":"1","anything":{"goes":true}}}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateBytes([]byte(tt.doc))
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBytes error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateBytesMalformed(t *testing.T) {
	v := mustDefault(t)
	err := v.ValidateBytes([]byte(`{"version": `))
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("error = %v, want INVALID_FORMAT", err)
	}
}

func TestCompileCustomSchema(t *testing.T) {
	v, err := Compile([]byte(`{"type":"object","required":["a/b"]}`))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	doc, err := ParseDocument([]byte(`{}`))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	errs := v.Validate(doc)
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1", len(errs))
	}
	if errs[0].Path != "" || errs[0].Keyword != "required" {
		t.Errorf("error = %+v", errs[0])
	}
	if !strings.HasPrefix(errs[0].String(), "(root): ") {
		t.Errorf("String() = %q", errs[0].String())
	}
}

func TestCompileInvalidSchema(t *testing.T) {
	tests := []struct {
		name   string
		schema string
	}{
		{"not json", `{`},
		{"bad type keyword", `{"type": 12}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile([]byte(tt.schema))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, errors.ErrCodeInvalidSchema) {
				t.Errorf("code = %v, want INVALID_SCHEMA", errors.GetCode(err))
			}
		})
	}
}

func TestCompileFileMissing(t *testing.T) {
	_, err := CompileFile("does/not/exist.json")
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestValidateOrderIsStable(t *testing.T) {
	v := mustDefault(t)
	doc := `{
		"version": 1,
		"nodes": [
			{"id": 1, "kind": "gateway", "label": 2, "doc": 3},
			{"kind": "route"},
			{"id": "n3", "kind": "service", "label": "x", "extra": true}
		],
		"edges": [
			{"id": "e1", "from": 1, "to": 2, "kind": "calls"},
			{"id": "e2"}
		],
		"metadata": {"version": 2, "environment": 3}
	}`

	var first []string
	for i := 0; i < 30; i++ {
		err := v.ValidateBytes([]byte(doc))
		vf, ok := err.(*ValidationFailedError)
		if !ok {
			t.Fatalf("error type = %T, want *ValidationFailedError", err)
		}
		got := vf.Details()
		if first == nil {
			first = got
			continue
		}
		if strings.Join(got, "\n") != strings.Join(first, "\n") {
			t.Fatalf("run %d order differs:\n%s\n---\n%s", i, strings.Join(first, "\n"), strings.Join(got, "\n"))
		}
	}

	var paths []string
	for _, line := range first {
		paths = append(paths, line[:strings.Index(line, ": ")])
	}
	sorted := slices.IsSortedFunc(paths, comparePointers)
	if !sorted {
		t.Errorf("paths not in location order: %v", paths)
	}
	if len(paths) < 8 {
		t.Errorf("got %d errors, want every violation: %v", len(paths), first)
	}
}

func TestSortErrors(t *testing.T) {
	errs := []ValidationError{
		{Path: "/version", Keyword: "type"},
		{Path: "/nodes/10/id", Keyword: "type"},
		{Path: "/nodes/2/label", Keyword: "type"},
		{Path: "/nodes/2", Keyword: "required"},
		{Path: "", Keyword: "required"},
		{Path: "/edges/0/kind", Keyword: "enum"},
		{Path: "/nodes/2", Keyword: "additionalProperties"},
	}
	SortErrors(errs)

	want := []string{
		"(root) required",
		"/edges/0/kind enum",
		"/nodes/2 additionalProperties",
		"/nodes/2 required",
		"/nodes/2/label type",
		"/nodes/10/id type",
		"/version type",
	}
	for i, e := range errs {
		path := e.Path
		if path == "" {
			path = "(root)"
		}
		if got := path + " " + e.Keyword; got != want[i] {
			t.Errorf("errs[%d] = %q, want %q", i, got, want[i])
		}
	}
}

func TestPointer(t *testing.T) {
	tests := []struct {
		tokens []string
		want   string
	}{
		{nil, ""},
		{[]string{"nodes", "0", "kind"}, "/nodes/0/kind"},
		{[]string{"a/b", "c~d"}, "/a~1b/c~0d"},
	}
	for _, tt := range tests {
		if got := pointer(tt.tokens); got != tt.want {
			t.Errorf("pointer(%v) = %q, want %q", tt.tokens, got, tt.want)
		}
	}
}
