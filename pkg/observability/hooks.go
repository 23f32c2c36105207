// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about model loads and saves, diffs, snapshot storage and
// HTTP requests served by `nmcanvas serve`.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, which avoids import cycles.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetModelHooks(observability.NewLogHooks(logger))
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	start := time.Now()
//	g, err := load()
//	observability.Model().OnLoad(ctx, source, g.NodeCount(), g.EdgeCount(), time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Model Hooks
// =============================================================================

// ModelHooks receives events from the canvas contract.
type ModelHooks interface {
	// OnLoad records a load and validation of the persisted model.
	OnLoad(ctx context.Context, source string, nodes, edges int, duration time.Duration, err error)

	// OnApply records an applied operation batch.
	OnApply(ctx context.Context, operations, warnings int, duration time.Duration, err error)

	// OnDiff records a computed diff.
	OnDiff(ctx context.Context, changes int, duration time.Duration)
}

// =============================================================================
// Snapshot Hooks
// =============================================================================

// SnapshotHooks receives events from snapshot storage.
type SnapshotHooks interface {
	// OnSnapshotPut records a stored snapshot.
	OnSnapshotPut(ctx context.Context, backend, hash string, size int)

	// OnSnapshotGet records a lookup; found is false on a miss.
	OnSnapshotGet(ctx context.Context, backend, hash string, found bool)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP API.
type HTTPHooks interface {
	// OnRequest records a served request.
	OnRequest(ctx context.Context, method, route string, status int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopModelHooks is a no-op implementation of ModelHooks.
type NoopModelHooks struct{}

func (NoopModelHooks) OnLoad(context.Context, string, int, int, time.Duration, error) {}
func (NoopModelHooks) OnApply(context.Context, int, int, time.Duration, error)        {}
func (NoopModelHooks) OnDiff(context.Context, int, time.Duration)                     {}

// NoopSnapshotHooks is a no-op implementation of SnapshotHooks.
type NoopSnapshotHooks struct{}

func (NoopSnapshotHooks) OnSnapshotPut(context.Context, string, string, int)  {}
func (NoopSnapshotHooks) OnSnapshotGet(context.Context, string, string, bool) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	modelHooks    ModelHooks    = NoopModelHooks{}
	snapshotHooks SnapshotHooks = NoopSnapshotHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	hooksMu       sync.RWMutex
)

// SetModelHooks registers custom model hooks.
// This should be called once at application startup.
func SetModelHooks(h ModelHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		modelHooks = h
	}
}

// SetSnapshotHooks registers custom snapshot hooks.
// This should be called once at application startup.
func SetSnapshotHooks(h SnapshotHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		snapshotHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Model returns the registered model hooks.
func Model() ModelHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return modelHooks
}

// Snapshot returns the registered snapshot hooks.
func Snapshot() SnapshotHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return snapshotHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	modelHooks = NoopModelHooks{}
	snapshotHooks = NoopSnapshotHooks{}
	httpHooks = NoopHTTPHooks{}
}
