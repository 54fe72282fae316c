package main

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/c360studio/atera/activity"
	"github.com/c360studio/atera/activity/validation"
	"github.com/c360studio/atera/catalog"
	"github.com/c360studio/atera/config"
	"github.com/c360studio/atera/metrics"
	"github.com/c360studio/atera/report"
)

// App wires the configuration to the activity store, the catalog and the
// metrics recorder.
type App struct {
	cfg      *config.Config
	fs       afero.Fs
	store    *activity.Store
	catalog  *catalog.Catalog
	recorder *metrics.Recorder
	logger   *slog.Logger
	out      io.Writer
	color    bool

	// beforeWrite, when set, sees every document write before it happens.
	beforeWrite func(path string, data []byte)
}

// NewApp creates a new application instance.
func NewApp(cfg *config.Config, fs afero.Fs, logger *slog.Logger, out io.Writer, color bool) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		cfg:   cfg,
		fs:    fs,
		store: activity.NewStore(fs),
		catalog: catalog.New(fs, cfg.Data.Root,
			catalog.WithActivitiesDir(cfg.Data.ActivitiesDir),
			catalog.WithDefinitionsPath(cfg.Data.Definitions),
			catalog.WithLogger(logger)),
		recorder: metrics.NewRecorder(),
		logger:   logger,
		out:      out,
		color:    color,
	}
}

// ResolveDocument maps a command argument to an activity document. The
// argument may be the document itself, its folder, or the folder name under
// the activities directory.
func (a *App) ResolveDocument(arg string) (string, error) {
	if info, err := a.fs.Stat(arg); err == nil {
		if info.IsDir() {
			return catalog.ModelPath(a.fs, arg)
		}
		return arg, nil
	}
	candidate := filepath.Join(a.catalog.ActivitiesPath(), arg)
	if ok, _ := afero.DirExists(a.fs, candidate); ok {
		return catalog.ModelPath(a.fs, candidate)
	}
	return "", fmt.Errorf("%s: %w", arg, activity.ErrNotFound)
}

// Validator builds a validator from the current definitions and activity ids.
// Activity references are not checked when the activities cannot be listed.
func (a *App) Validator() (*validation.Validator, error) {
	defs, err := a.catalog.Definitions()
	if err != nil {
		return nil, err
	}
	ids, err := a.catalog.ActivityIDs()
	if err != nil {
		a.logger.Warn("Activity references will not be checked", "error", err)
		ids = nil
	}
	return validation.NewValidator(defs, ids), nil
}

// ValidateFile validates one document, saving it when fix changed the text.
// Documents that cannot be read or decoded yield an exception result.
func (a *App) ValidateFile(v *validation.Validator, path string, fix bool) *validation.Result {
	doc, err := a.store.Load(path)
	if err != nil {
		result := validation.ExceptionResult(err)
		a.recorder.Observe(result, 0)
		return result
	}

	start := time.Now()
	result := v.Validate(doc, validation.Options{Fix: fix})
	a.recorder.Observe(result, time.Since(start))

	if result.Fixed {
		if err := a.save(path, doc); err != nil {
			a.logger.Error("Failed to save fixed document", "path", path, "error", err)
			result.Problems = append(result.Problems, "fixed text not saved: "+err.Error())
		} else {
			a.logger.Info("Saved fixed document", "path", path)
		}
	}
	return result
}

// Edit loads the document named by arg, applies fn and saves the result.
func (a *App) Edit(arg string, fn func(doc *activity.Activity, path string) error) error {
	path, err := a.ResolveDocument(arg)
	if err != nil {
		return err
	}
	doc, err := a.store.Load(path)
	if err != nil {
		return err
	}
	if err := fn(doc, path); err != nil {
		return err
	}
	if err := a.save(path, doc); err != nil {
		return err
	}
	a.logger.Info("Activity updated", "path", path)
	return nil
}

func (a *App) save(path string, doc *activity.Activity) error {
	data, err := doc.Encode()
	if err != nil {
		return err
	}
	if a.beforeWrite != nil {
		a.beforeWrite(path, data)
	}
	return a.store.Write(path, data)
}

// Load reads the document named by arg.
func (a *App) Load(arg string) (*activity.Activity, string, error) {
	path, err := a.ResolveDocument(arg)
	if err != nil {
		return nil, "", err
	}
	doc, err := a.store.Load(path)
	if err != nil {
		return nil, "", err
	}
	return doc, path, nil
}

// Failed reports whether results fail a run under the configuration.
func (a *App) Failed(results []*validation.Result) bool {
	for _, r := range results {
		if !r.Valid() {
			return true
		}
		if a.cfg.Validation.FailOnWarnings && len(r.Warnings) > 0 {
			return true
		}
	}
	return false
}

// FlushMetrics writes the metrics textfile when one is configured.
func (a *App) FlushMetrics() {
	if a.cfg.Metrics.File == "" {
		return
	}
	if err := a.recorder.WriteTextfile(a.cfg.Metrics.File); err != nil {
		a.logger.Warn("Failed to write metrics", "path", a.cfg.Metrics.File, "error", err)
	}
}

func (a *App) reportOptions(normalizeLog bool) report.Options {
	return report.Options{Color: a.color, NormalizeLog: normalizeLog}
}

// displayPath shortens path relative to the data root when possible.
func (a *App) displayPath(path string) string {
	if rel, err := filepath.Rel(a.cfg.Data.Root, path); err == nil && !filepath.IsAbs(rel) && rel != "" && rel[0] != '.' {
		return rel
	}
	return path
}
