package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/atera/activity/validation"
	"github.com/c360studio/atera/catalog"
	"github.com/c360studio/atera/report"
	"github.com/c360studio/atera/watch"
)

func (c *cli) watchCmd() *cobra.Command {
	var (
		debounce time.Duration
		fix      bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Validate activity documents as they change",
		Long: `Watch the data root and validate every activity document when it is
created or modified. Changes to the definitions file reload the validator.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg := watch.DefaultConfig()
			cfg.Debounce = c.app.cfg.Watch.Debounce
			if cmd.Flags().Changed("debounce") {
				cfg.Debounce = debounce
			}
			return c.runWatch(ctx, cmd, cfg, fix || c.app.cfg.Validation.Fix)
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 0, "Quiet period before validating a change (default from config)")
	cmd.Flags().BoolVar(&fix, "fix", false, "Write normalized text back to the documents")
	return cmd
}

func (c *cli) runWatch(ctx context.Context, cmd *cobra.Command, cfg watch.Config, fix bool) error {
	app := c.app
	v, err := app.Validator()
	if err != nil {
		return err
	}

	w, err := watch.New(cfg, app.cfg.Data.Root, app.logger)
	if err != nil {
		return err
	}
	// Documents saved by the fix are hashed before the write so it is not
	// reported back as a change.
	app.beforeWrite = w.Expect
	defer func() { app.beforeWrite = nil }()
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := w.Stop(); err != nil {
			app.logger.Warn("Failed to stop watcher", "error", err)
		}
	}()

	app.logger.Info("Watching activities", "root", app.cfg.Data.Root, "debounce", cfg.Debounce)
	definitions := filepath.Clean(app.cfg.DefinitionsPath())
	out := cmd.OutOrStdout()

	for {
		select {
		case <-ctx.Done():
			if n := w.DroppedEvents(); n > 0 {
				app.logger.Warn("Watch events were dropped", "count", n)
			}
			return nil
		case event, ok := <-w.Events():
			if !ok {
				return nil
			}
			if filepath.Clean(event.AbsPath) == definitions {
				if reloaded, err := app.Validator(); err != nil {
					app.logger.Error("Failed to reload definitions", "error", err)
				} else {
					v = reloaded
					app.logger.Info("Definitions reloaded")
				}
				continue
			}
			if event.Operation == watch.OpDelete {
				app.logger.Info("Document removed", "path", event.Path)
				continue
			}
			c.validateChanged(v, event, fix, out)
		}
	}
}

// validateChanged validates a changed document and renders its findings.
func (c *cli) validateChanged(v *validation.Validator, event watch.Event, fix bool, out io.Writer) {
	app := c.app
	if !c.isActivityDocument(event.AbsPath) {
		app.logger.Debug("Ignoring non-activity file", "path", event.Path)
		return
	}

	result := app.ValidateFile(v, event.AbsPath, fix)
	app.FlushMetrics()

	if err := report.RenderResult(out, app.displayPath(event.AbsPath), result, app.reportOptions(false)); err != nil {
		app.logger.Warn("Failed to render result", "error", err)
	}
}

// isActivityDocument reports whether path is the model of an activity folder
// under the activities directory. Broken models count so their decode
// failure gets reported.
func (c *cli) isActivityDocument(path string) bool {
	dir := filepath.Dir(path)
	if filepath.Dir(dir) != filepath.Clean(c.app.catalog.ActivitiesPath()) {
		return false
	}
	model, err := catalog.ModelPath(c.app.fs, dir)
	if errors.Is(err, catalog.ErrInvalidModel) {
		return true
	}
	return err == nil && model == path
}
