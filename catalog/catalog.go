package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
)

const (
	// DefaultActivitiesDir is the activities directory relative to the data root.
	DefaultActivitiesDir = "activities"
	// DefaultDefinitionsPath is the definitions file relative to the data root.
	DefaultDefinitionsPath = "common/definitions.json"
	// StorageDir is the directory of uploaded assets inside an activity folder.
	StorageDir = "storage"
)

// Activity folder errors.
var (
	ErrFolderMissing  = errors.New("activity folder does not exist")
	ErrNotDirectory   = errors.New("activity folder is not a directory")
	ErrNoModel        = errors.New("no json files found in the folder, aborting")
	ErrMultipleModels = errors.New("multiple json files found in the folder, aborting")
	ErrInvalidModel   = errors.New("model is not a json")
)

// Entry describes one activity found in the data root.
type Entry struct {
	// Dir is the activity folder.
	Dir string `json:"dir"`
	// Path is the activity document inside Dir.
	Path string `json:"path"`
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Catalog reads shared data below a data root.
type Catalog struct {
	fs              afero.Fs
	root            string
	activitiesDir   string
	definitionsPath string
	logger          *slog.Logger
}

// Option customizes a Catalog during construction.
type Option func(*Catalog)

// WithActivitiesDir overrides the activities directory, relative to the root.
func WithActivitiesDir(dir string) Option {
	return func(c *Catalog) {
		if dir != "" {
			c.activitiesDir = dir
		}
	}
}

// WithDefinitionsPath overrides the definitions file, relative to the root.
func WithDefinitionsPath(p string) Option {
	return func(c *Catalog) {
		if p != "" {
			c.definitionsPath = p
		}
	}
}

// WithLogger sets the logger used to report skipped folders.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a catalog over the data root on fs. A nil fs means the OS
// filesystem.
func New(fsys afero.Fs, root string, opts ...Option) *Catalog {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	c := &Catalog{
		fs:              fsys,
		root:            root,
		activitiesDir:   DefaultActivitiesDir,
		definitionsPath: DefaultDefinitionsPath,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Root returns the data root.
func (c *Catalog) Root() string {
	return c.root
}

// ActivitiesPath returns the absolute activities directory.
func (c *Catalog) ActivitiesPath() string {
	return filepath.Join(c.root, c.activitiesDir)
}

// DefinitionsPath returns the absolute definitions file path.
func (c *Catalog) DefinitionsPath() string {
	return filepath.Join(c.root, c.definitionsPath)
}

// Definitions loads the definitions table.
func (c *Catalog) Definitions() (*Definitions, error) {
	p := c.DefinitionsPath()
	data, err := afero.ReadFile(c.fs, p)
	if err != nil {
		return nil, fmt.Errorf("read definitions %s: %w", p, err)
	}
	return ParseDefinitions(data)
}

// Activities lists every valid activity folder, sorted by folder. Folders
// that do not hold exactly one JSON document are skipped.
func (c *Catalog) Activities() ([]Entry, error) {
	base := c.ActivitiesPath()
	if ok, err := afero.DirExists(c.fs, base); err != nil {
		return nil, fmt.Errorf("stat %s: %w", base, err)
	} else if !ok {
		return nil, nil
	}

	fsys := afero.NewIOFS(afero.NewBasePathFs(c.fs, base))
	matches, err := doublestar.Glob(fsys, "*/*.json")
	if err != nil {
		return nil, fmt.Errorf("glob activities: %w", err)
	}

	byFolder := make(map[string][]string)
	for _, m := range matches {
		dir := path.Dir(m)
		byFolder[dir] = append(byFolder[dir], m)
	}

	var entries []Entry
	for dir, files := range byFolder {
		if len(files) != 1 {
			c.logger.Debug("Skipping activity folder", "dir", dir, "error", ErrMultipleModels)
			continue
		}
		data, err := fs.ReadFile(fsys, files[0])
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", files[0], err)
		}
		if !gjson.ValidBytes(data) {
			c.logger.Debug("Skipping activity folder", "dir", dir, "error", ErrInvalidModel)
			continue
		}
		fields := gjson.GetManyBytes(data, "id", "name")
		entries = append(entries, Entry{
			Dir:  filepath.Join(base, filepath.FromSlash(dir)),
			Path: filepath.Join(base, filepath.FromSlash(files[0])),
			ID:   fields[0].String(),
			Name: fields[1].String(),
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Dir < entries[j].Dir })
	return entries, nil
}

// ActivityIDs returns the ids of every activity with a non-empty id.
func (c *Catalog) ActivityIDs() (IDSet, error) {
	entries, err := c.Activities()
	if err != nil {
		return nil, err
	}
	set := make(IDSet, len(entries))
	for _, e := range entries {
		if e.ID != "" {
			set[e.ID] = struct{}{}
		}
	}
	return set, nil
}

// StorageAssets lists the .webp assets uploaded in an activity folder.
func (c *Catalog) StorageAssets(activityDir string) ([]string, error) {
	dir := filepath.Join(activityDir, StorageDir)
	infos, err := afero.ReadDir(c.fs, dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read storage %s: %w", dir, err)
	}
	var assets []string
	for _, info := range infos {
		if !info.IsDir() && strings.EqualFold(filepath.Ext(info.Name()), ".webp") {
			assets = append(assets, info.Name())
		}
	}
	sort.Strings(assets)
	return assets, nil
}

// ModelPath returns the activity document held by dir after checking that
// dir is a valid activity folder.
func ModelPath(fsys afero.Fs, dir string) (string, error) {
	info, err := fsys.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrFolderMissing
		}
		return "", err
	}
	if !info.IsDir() {
		return "", ErrNotDirectory
	}
	infos, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", dir, err)
	}
	var jsons []string
	for _, fi := range infos {
		if !fi.IsDir() && filepath.Ext(fi.Name()) == ".json" {
			jsons = append(jsons, filepath.Join(dir, fi.Name()))
		}
	}
	switch len(jsons) {
	case 0:
		return "", ErrNoModel
	case 1:
	default:
		return "", ErrMultipleModels
	}
	data, err := afero.ReadFile(fsys, jsons[0])
	if err != nil {
		return "", fmt.Errorf("read %s: %w", jsons[0], err)
	}
	if !gjson.ValidBytes(data) {
		return "", ErrInvalidModel
	}
	return jsons[0], nil
}

// CheckFolder reports why dir is not a valid activity folder, or nil.
func CheckFolder(fsys afero.Fs, dir string) error {
	_, err := ModelPath(fsys, dir)
	return err
}
