package canvas

import (
	"context"
	"time"

	"github.com/matzehuels/nmcanvas/pkg/diff"
	"github.com/matzehuels/nmcanvas/pkg/errors"
	"github.com/matzehuels/nmcanvas/pkg/graph"
	"github.com/matzehuels/nmcanvas/pkg/observability"
	"github.com/matzehuels/nmcanvas/pkg/ops"
	"github.com/matzehuels/nmcanvas/pkg/snapshot"
)

// SaveResult describes a completed (or previewed) save.
type SaveResult struct {
	Graph   *graph.Graph   `json:"graph"`
	Report  ops.Report     `json:"report"`
	Changes []diff.Result  `json:"changes"`
	Base    snapshot.Entry `json:"base"`
	Head    snapshot.Entry `json:"head"`
	Written bool           `json:"written"`
}

// SaveModel loads the persisted document, applies the batch in order and
// overwrites the document with the pretty-printed result.
//
// When an operation fails, nothing is written and the error is returned
// together with the partial result. Unrecognized operations only produce
// warnings. The base and head documents are recorded as snapshots.
func (c *Contract) SaveModel(ctx context.Context, batch []ops.Operation) (*SaveResult, error) {
	return c.save(ctx, batch, true)
}

// Preview runs SaveModel without writing anything.
func (c *Contract) Preview(ctx context.Context, batch []ops.Operation) (*SaveResult, error) {
	return c.save(ctx, batch, false)
}

func (c *Contract) save(ctx context.Context, batch []ops.Operation, write bool) (*SaveResult, error) {
	g, err := c.LoadModel(ctx)
	if err != nil {
		return nil, err
	}
	base := g.Clone()

	start := time.Now()
	g, report, err := ops.Apply(g, batch, ops.Options{
		RejectDuplicateIDs: c.Options.Strict,
		CheckReferences:    c.Options.CheckReferences,
	})
	observability.Model().OnApply(ctx, report.Total(), len(report.Warnings), time.Since(start), err)

	for _, w := range report.Warnings {
		c.Logger.Warn(w.Message, "code", w.Code, "index", w.Index)
	}

	res := &SaveResult{Graph: g, Report: report}
	if err != nil {
		c.Logger.Error("operation batch failed, model not written", "err", err)
		return res, err
	}
	res.Changes = c.GetDiffWithOptions(ctx, base, g, diff.Options{Details: c.Options.Details})

	data, err := graph.MarshalGraph(g)
	if err != nil {
		return res, errors.Wrap(errors.ErrCodeInternal, err, "encode model")
	}
	if c.Options.ValidateResult {
		if err := c.Validator.ValidateBytes(data); err != nil {
			c.Logger.Error("result does not conform to the schema, model not written", "err", err)
			return res, err
		}
	}

	if !write {
		return res, nil
	}
	if err := c.Store.Write(ctx, data); err != nil {
		return res, err
	}
	res.Written = true

	res.Base = c.recordSnapshot(ctx, base)
	res.Head = c.recordSnapshot(ctx, g)

	c.Logger.Info("canonical model saved",
		"target", c.Store.Location(),
		"operations", report.Total(),
		"changes", len(res.Changes),
		"warnings", len(report.Warnings))
	return res, nil
}

// recordSnapshot stores g in the snapshot history. Failures are logged and
// do not fail the save, which has already been written.
func (c *Contract) recordSnapshot(ctx context.Context, g *graph.Graph) snapshot.Entry {
	if _, disabled := c.Snapshots.(*snapshot.NullStore); disabled {
		return snapshot.Entry{}
	}
	entry, err := snapshot.SaveGraph(ctx, c.Snapshots, g)
	if err != nil {
		c.Logger.Warn("snapshot not recorded", "err", err)
		return snapshot.Entry{}
	}
	observability.Snapshot().OnSnapshotPut(ctx, Backend(c.Snapshots), entry.Hash, entry.Size)
	return entry
}
