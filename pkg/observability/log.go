package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks reports every event as a debug log line. It implements
// ModelHooks, SnapshotHooks and HTTPHooks.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks writing to logger. A nil logger uses log.Default().
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHooks{logger: logger.WithPrefix("hooks")}
}

func (h *LogHooks) OnLoad(_ context.Context, source string, nodes, edges int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("load failed", "source", source, "duration", d, "err", err)
		return
	}
	h.logger.Debug("load", "source", source, "nodes", nodes, "edges", edges, "duration", d)
}

func (h *LogHooks) OnApply(_ context.Context, operations, warnings int, d time.Duration, err error) {
	h.logger.Debug("apply", "operations", operations, "warnings", warnings, "duration", d, "err", err)
}

func (h *LogHooks) OnDiff(_ context.Context, changes int, d time.Duration) {
	h.logger.Debug("diff", "changes", changes, "duration", d)
}

func (h *LogHooks) OnSnapshotPut(_ context.Context, backend, hash string, size int) {
	h.logger.Debug("snapshot put", "backend", backend, "hash", short(hash), "size", size)
}

func (h *LogHooks) OnSnapshotGet(_ context.Context, backend, hash string, found bool) {
	h.logger.Debug("snapshot get", "backend", backend, "hash", short(hash), "found", found)
}

func (h *LogHooks) OnRequest(_ context.Context, method, route string, status int, d time.Duration) {
	h.logger.Debug("request", "method", method, "route", route, "status", status, "duration", d)
}

func short(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

var (
	_ ModelHooks    = (*LogHooks)(nil)
	_ SnapshotHooks = (*LogHooks)(nil)
	_ HTTPHooks     = (*LogHooks)(nil)
)
