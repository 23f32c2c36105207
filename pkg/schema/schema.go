// Package schema validates canonical graph documents against a JSON Schema.
//
// Validation uses the full JSON Schema 2020-12 vocabulary with format
// assertions (date-time, uri, email, ...) enabled. A [Validator] is compiled
// once and is safe for concurrent use.
//
// Every failing leaf is reported. Callers that need an error value use
// [Validator.ValidateBytes], which returns a [*ValidationFailedError]
// carrying the full list.
package schema

import (
	"bytes"
	"cmp"
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/matzehuels/nmcanvas/pkg/errors"
)

//go:embed canonical-graph.schema.json
var canonicalSchema []byte

// CanonicalSchema returns a copy of the embedded canonical graph schema.
func CanonicalSchema() []byte {
	return bytes.Clone(canonicalSchema)
}

const resourceName = "canonical-graph.schema.json"

// Validator checks documents against a compiled schema.
type Validator struct {
	schema *jsonschema.Schema
	source string
}

// Compile builds a Validator from a JSON Schema document.
func Compile(schemaJSON []byte) (*Validator, error) {
	return compile(schemaJSON, "inline")
}

// CompileFile reads and compiles the schema at path.
func CompileFile(path string) (*Validator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read schema %s", path)
	}
	return compile(data, path)
}

var defaultValidator = sync.OnceValues(func() (*Validator, error) {
	return compile(canonicalSchema, "embedded")
})

// Default returns the validator for the embedded canonical schema.
func Default() (*Validator, error) {
	return defaultValidator()
}

func compile(schemaJSON []byte, source string) (*Validator, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSchema, err, "parse schema %s", source)
	}

	c := jsonschema.NewCompiler()
	c.DefaultDraft(jsonschema.Draft2020)
	c.AssertFormat()
	if err := c.AddResource(resourceName, doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSchema, err, "load schema %s", source)
	}
	sch, err := c.Compile(resourceName)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSchema, err, "compile schema %s", source)
	}
	return &Validator{schema: sch, source: source}, nil
}

// Source names where the schema came from: a file path, "inline" or "embedded".
func (v *Validator) Source() string { return v.source }

// Validate checks a decoded JSON document and returns every violation,
// ordered by location (see [SortErrors]). The document must be made of plain
// JSON values (map[string]any, []any, string, bool, nil, json.Number or
// float64), as produced by ParseDocument.
func (v *Validator) Validate(doc any) []ValidationError {
	err := v.schema.Validate(doc)
	if err == nil {
		return nil
	}

	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []ValidationError{{Reason: err.Error()}}
	}

	p := message.NewPrinter(language.English)
	var out []ValidationError
	collectLeaves(verr, p, &out)
	SortErrors(out)
	return out
}

// ValidateBytes parses data and validates it. It returns nil when the
// document conforms, an INVALID_FORMAT error when data is not JSON, and a
// *ValidationFailedError otherwise.
func (v *Validator) ValidateBytes(data []byte) error {
	doc, err := ParseDocument(data)
	if err != nil {
		return err
	}
	if errs := v.Validate(doc); len(errs) > 0 {
		return &ValidationFailedError{Errors: errs}
	}
	return nil
}

// ParseDocument decodes JSON into the generic form accepted by Validate.
// Numbers are kept as json.Number.
func ParseDocument(data []byte) (any, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "document is not valid JSON")
	}
	return doc, nil
}

func collectLeaves(e *jsonschema.ValidationError, p *message.Printer, out *[]ValidationError) {
	if len(e.Causes) == 0 {
		*out = append(*out, ValidationError{
			Path:    pointer(e.InstanceLocation),
			Keyword: keyword(e.ErrorKind.KeywordPath()),
			Reason:  e.ErrorKind.LocalizedString(p),
		})
		return
	}
	for _, c := range e.Causes {
		collectLeaves(c, p, out)
	}
}

// SortErrors orders errs by location, comparing JSON Pointer tokens one by
// one. Array indexes compare numerically, a parent sorts before its
// children, and errors at the same location are ordered by keyword then
// reason. The validator visits object properties in no fixed order, so
// this is what makes reports stable.
func SortErrors(errs []ValidationError) {
	slices.SortStableFunc(errs, func(a, b ValidationError) int {
		if c := comparePointers(a.Path, b.Path); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Keyword, b.Keyword); c != 0 {
			return c
		}
		return cmp.Compare(a.Reason, b.Reason)
	})
}

func comparePointers(a, b string) int {
	at, bt := splitPointer(a), splitPointer(b)
	for i := 0; i < len(at) && i < len(bt); i++ {
		if c := compareTokens(at[i], bt[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(at), len(bt))
}

func splitPointer(p string) []string {
	if p == "" {
		return nil
	}
	return strings.Split(strings.TrimPrefix(p, "/"), "/")
}

func compareTokens(a, b string) int {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	switch {
	case aerr == nil && berr == nil:
		return cmp.Compare(ai, bi)
	case aerr == nil:
		return -1
	case berr == nil:
		return 1
	default:
		return cmp.Compare(a, b)
	}
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// pointer renders instance location tokens as a JSON Pointer (RFC 6901).
func pointer(tokens []string) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteByte('/')
		b.WriteString(pointerEscaper.Replace(t))
	}
	return b.String()
}

func keyword(path []string) string {
	if len(path) == 0 {
		return ""
	}
	return path[len(path)-1]
}

// ValidationError is one schema violation.
type ValidationError struct {
	Path    string `json:"path"`    // JSON Pointer into the document; "" is the root
	Keyword string `json:"keyword"` // failing schema keyword, e.g. "required"
	Reason  string `json:"reason"`
}

func (e ValidationError) String() string {
	path := e.Path
	if path == "" {
		path = "(root)"
	}
	return fmt.Sprintf("%s: %s", path, e.Reason)
}

// ValidationFailedError reports that a document does not conform to the
// schema. It carries every violation found.
type ValidationFailedError struct {
	Errors []ValidationError
}

func (e *ValidationFailedError) Error() string {
	noun := "errors"
	if len(e.Errors) == 1 {
		noun = "error"
	}
	return fmt.Sprintf("%s: canonical graph failed validation (%d %s)",
		errors.ErrCodeSchemaValidationFailed, len(e.Errors), noun)
}

// Unwrap exposes the error code so errors.Is(err, ErrCodeSchemaValidationFailed)
// from pkg/errors matches.
func (e *ValidationFailedError) Unwrap() error {
	return errors.New(errors.ErrCodeSchemaValidationFailed, "canonical graph failed validation")
}

// Details returns one line per violation.
func (e *ValidationFailedError) Details() []string {
	lines := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		lines[i] = ve.String()
	}
	return lines
}
