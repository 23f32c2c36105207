package ops

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/nmcanvas/pkg/errors"
)

// Format is the encoding of an operation batch.
type Format string

// Supported batch formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks a batch format from a file extension. Anything other
// than .yaml or .yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ReadBatchFile reads an operation batch from path.
func ReadBatchFile(path string) ([]Operation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()
	return DecodeBatch(f, FormatFromPath(path))
}

// DecodeBatch reads a sequence of {type, payload} entries.
//
// A YAML batch is converted to its JSON equivalent first, so both formats
// decode to identical operations.
func DecodeBatch(r io.Reader, format Format) ([]Operation, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}

	if format == FormatYAML {
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, err
		}
	}

	var batch []Operation
	if err := json.Unmarshal(bytes.TrimSpace(data), &batch); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s batch", format)
	}
	return batch, nil
}

// EncodeBatch writes ops as an indented JSON array.
func EncodeBatch(w io.Writer, ops []Operation) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if ops == nil {
		ops = []Operation{}
	}
	return enc.Encode(ops)
}

func yamlToJSON(data []byte) ([]byte, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode yaml batch")
	}
	v, err := yamlValue(&root)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode yaml batch")
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "convert yaml batch")
	}
	return out, nil
}

// yamlValue converts a YAML node into JSON-compatible values. Mapping keys
// become strings and timestamps keep their source text, so a YAML batch
// carries the same values its JSON spelling would.
func yamlValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return yamlValue(n.Content[0])
	case yaml.AliasNode:
		return yamlValue(n.Alias)
	case yaml.SequenceNode:
		out := make([]any, len(n.Content))
		for i, c := range n.Content {
			v, err := yamlValue(c)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case yaml.MappingNode:
		out := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			v, err := yamlValue(val)
			if err != nil {
				return nil, err
			}
			if key.ShortTag() == "!!merge" {
				mergeYAML(out, v)
				continue
			}
			out[key.Value] = v
		}
		return out, nil
	}

	switch n.ShortTag() {
	case "!!str", "!!timestamp", "!!binary":
		return n.Value, nil
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// mergeYAML applies a "<<" merge key: explicit keys win over merged ones.
func mergeYAML(dst map[string]any, src any) {
	switch t := src.(type) {
	case map[string]any:
		for k, v := range t {
			if _, ok := dst[k]; !ok {
				dst[k] = v
			}
		}
	case []any:
		for _, m := range t {
			mergeYAML(dst, m)
		}
	}
}
