package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nmcanvas/pkg/canvas"
	"github.com/matzehuels/nmcanvas/pkg/diff"
	"github.com/matzehuels/nmcanvas/pkg/errors"
	"github.com/matzehuels/nmcanvas/pkg/graph"
)

// watchDebounce coalesces the burst of events editors emit for one save.
const watchDebounce = 200 * time.Millisecond

// watchCommand creates the watch command.
func (c *CLI) watchCommand() *cobra.Command {
	var details bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-validate the model and show changes whenever it is written",
		Long: `Watch the model file. On every write the document is validated again
and diffed against the last valid version. Invalid versions are reported and
skipped, so the next diff is against the last document that validated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			contract, err := c.newContract(ctx)
			if err != nil {
				return err
			}
			defer contract.Snapshots.Close()

			path := c.Config.Model
			printInfo("Watching %s (ctrl+c to stop)", path)
			return watchModel(ctx, contract, path, diff.Options{Details: details}, func(ev watchEvent) {
				switch {
				case ev.Err != nil:
					printError("%s", errors.UserMessage(ev.Err))
				case ev.Initial:
					printSuccess("Model is valid")
					printStats(ev.Graph.NodeCount(), ev.Graph.EdgeCount())
				default:
					printSuccess("Model changed")
					printChanges(ev.Changes)
					printSummary(ev.Changes)
				}
			})
		},
	}

	cmd.Flags().BoolVarP(&details, "details", "d", false, "show field-level changes")
	return cmd
}

// watchEvent reports one reload of the watched model.
type watchEvent struct {
	Initial bool
	Graph   *graph.Graph
	Changes []diff.Result
	Err     error
}

// watchModel loads the model once, then reloads it after every change to
// path until ctx is canceled. The parent directory is watched so that
// editors that replace the file by rename are still seen.
func watchModel(ctx context.Context, contract *canvas.Contract, path string, opts diff.Options, notify func(watchEvent)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create watcher")
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", path)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "watch %s", filepath.Dir(abs))
	}

	last, err := contract.LoadModel(ctx)
	notify(watchEvent{Initial: true, Graph: last, Err: err})

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(watchDebounce)
			pending = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			loggerFromContext(ctx).Warn("watch error", "err", err)
		case <-pending:
			pending = nil
			g, err := contract.LoadModel(ctx)
			if err != nil {
				notify(watchEvent{Err: err})
				continue
			}
			notify(watchEvent{Graph: g, Changes: contract.GetDiffWithOptions(ctx, last, g, opts)})
			last = g
		}
	}
}
