// Package canvas ties the engine together: validated load, batch save and
// diff over the persisted canonical graph.
//
// A [Contract] owns no document state. Every LoadModel reads and validates
// the persisted document afresh, and every SaveModel loads, applies and
// writes back in one call. The contract does not lock; callers sharing one
// persisted document across goroutines must serialize SaveModel themselves
// (internal/server does).
//
// # Usage
//
//	c, err := canvas.NewContract(store.NewFileStore("model/graph.json"), nil, nil, logger)
//	g, err := c.LoadModel(ctx)
//	res, err := c.SaveModel(ctx, []ops.Operation{ops.RemoveNode("legacy")})
//	changes := c.GetDiff(ctx, before, after)
package canvas

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nmcanvas/pkg/diff"
	"github.com/matzehuels/nmcanvas/pkg/errors"
	"github.com/matzehuels/nmcanvas/pkg/graph"
	"github.com/matzehuels/nmcanvas/pkg/observability"
	"github.com/matzehuels/nmcanvas/pkg/schema"
	"github.com/matzehuels/nmcanvas/pkg/snapshot"
	"github.com/matzehuels/nmcanvas/pkg/store"
)

// Options tunes save behavior.
type Options struct {
	// Strict rejects addNode/addEdge for IDs that already exist.
	Strict bool
	// CheckReferences reports edges whose endpoints name no node.
	CheckReferences bool
	// ValidateResult validates the mutated document before writing and
	// refuses to persist one that does not conform.
	ValidateResult bool
	// Details adds field-level changes to the diff returned by SaveModel.
	Details bool
}

// Contract is the load/save/diff entry point shared by the CLI and the
// HTTP API.
type Contract struct {
	Store     store.Store
	Validator *schema.Validator
	Snapshots snapshot.Store
	Logger    *log.Logger
	Options   Options
}

// NewContract creates a contract over st.
// If v is nil, the embedded canonical schema is used.
// If snaps is nil, a NullStore is used (history disabled).
// If logger is nil, log.Default() is used.
func NewContract(st store.Store, v *schema.Validator, snaps snapshot.Store, logger *log.Logger) (*Contract, error) {
	if st == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "contract requires a store")
	}
	if v == nil {
		var err error
		if v, err = schema.Default(); err != nil {
			return nil, err
		}
	}
	if snaps == nil {
		snaps = snapshot.NewNullStore()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Contract{Store: st, Validator: v, Snapshots: snaps, Logger: logger}, nil
}

// LoadModel reads the persisted document and validates it against the
// schema. No graph is returned when validation fails.
func (c *Contract) LoadModel(ctx context.Context) (*graph.Graph, error) {
	start := time.Now()
	g, err := c.loadModel(ctx)

	nodes, edges := 0, 0
	if g != nil {
		nodes, edges = g.NodeCount(), g.EdgeCount()
	}
	observability.Model().OnLoad(ctx, c.Store.Location(), nodes, edges, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	c.Logger.Info("canonical model loaded and validated",
		"source", c.Store.Location(),
		"nodes", nodes,
		"edges", edges)
	return g, nil
}

func (c *Contract) loadModel(ctx context.Context) (*graph.Graph, error) {
	data, err := c.Store.Read(ctx)
	if err != nil {
		return nil, err
	}
	return c.decodeValidated(data, c.Store.Location())
}

// decodeValidated validates data and decodes it into a graph.
func (c *Contract) decodeValidated(data []byte, source string) (*graph.Graph, error) {
	if err := c.Validator.ValidateBytes(data); err != nil {
		if vf, ok := err.(*schema.ValidationFailedError); ok {
			for _, line := range vf.Details() {
				c.Logger.Error("validation error", "source", source, "error", line)
			}
		}
		return nil, err
	}
	g, err := graph.UnmarshalGraph(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s", source)
	}
	return g, nil
}

// GetDiff compares two documents. It never fails.
func (c *Contract) GetDiff(ctx context.Context, base, head *graph.Graph) []diff.Result {
	return c.GetDiffWithOptions(ctx, base, head, diff.Options{})
}

// GetDiffWithOptions is GetDiff with field-level details on request.
func (c *Contract) GetDiffWithOptions(ctx context.Context, base, head *graph.Graph, opts diff.Options) []diff.Result {
	start := time.Now()
	results := diff.DiffWithOptions(base, head, opts)
	observability.Model().OnDiff(ctx, len(results), time.Since(start))
	return results
}
