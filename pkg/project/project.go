// Package project manages the on-disk layout of a tkpdb bootstrap project:
// the tkpdb.yaml configuration, the schema root, its manifest, and the
// category subdirectories scripts live in.
package project

import (
	_ "embed"
	"os"
	"path/filepath"
	"testing/fstest"

	"github.com/AntoniaR/tkp/pkg/config"
	"github.com/AntoniaR/tkp/pkg/consts"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	//go:embed embed/tkpdb.yaml
	defaultConfig []byte

	//go:embed embed/manifest
	defaultManifest []byte

	image = fstest.MapFS{
		"db":            {Mode: os.ModeDir | consts.ModeDir},
		"db/tables":     {Mode: os.ModeDir | consts.ModeDir},
		"db/functions":  {Mode: os.ModeDir | consts.ModeDir},
		"db/procedures": {Mode: os.ModeDir | consts.ModeDir},
		"db/init":       {Mode: os.ModeDir | consts.ModeDir},
		"db/views":      {Mode: os.ModeDir | consts.ModeDir},
		"db/manifest":   {Data: defaultManifest},
		"tkpdb.yaml":    {Data: defaultConfig},
	}
)

type (
	// InitOptions contains options for project initialization
	InitOptions struct {
		// DatabaseURL overrides the default postgres URL written to
		// tkpdb.yaml. If empty, the embedded default is kept.
		DatabaseURL string
	}

	Project struct {
		root   string
		config *config.Config
	}
)

// New creates a Project instance rooted at an existing directory.
//
// Example:
//
//	proj := project.New("/path/to/schema/project")
//	if err := proj.Initialize(project.InitOptions{}); err != nil {
//		log.Fatal(err)
//	}
func New(path string) *Project {
	return &Project{root: path}
}

// NewWithConfig creates a Project rooted at an existing directory with an
// already-loaded configuration, so path lookups honor a customized schema
// root or manifest name.
func NewWithConfig(path string, cfg *config.Config) *Project {
	return &Project{root: path, config: cfg}
}

// Initialize sets up the project directory structure and loads the
// configuration. Idempotent: only missing files and directories are created,
// existing content is preserved.
func (p *Project) Initialize(options InitOptions) error {
	if err := p.ensureDirectory(); err != nil {
		return err
	}

	for path, entry := range image {
		fullPath := filepath.Join(p.root, path)

		if _, err := os.Stat(fullPath); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return errors.Wrapf(err, "failed to stat %s", fullPath)
		}

		if entry.Mode.IsDir() {
			if err := os.MkdirAll(fullPath, entry.Mode.Perm()); err != nil {
				return errors.Wrapf(err, "failed to create directory %s", fullPath)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(fullPath), consts.ModeDir); err != nil {
			return errors.Wrapf(err, "failed to create parent directory for %s", fullPath)
		}

		if err := os.WriteFile(fullPath, entry.Data, consts.ModeFile); err != nil {
			return errors.Wrapf(err, "failed to write file %s", fullPath)
		}
	}

	cfg, err := config.LoadConfigFile(filepath.Join(p.root, consts.ConfigFile))
	if err != nil {
		return errors.Wrapf(err, "failed to load %s", consts.ConfigFile)
	}

	if options.DatabaseURL != "" {
		cfg.Postgres.URL = options.DatabaseURL
		if err := p.writeConfig(cfg); err != nil {
			return err
		}
	}

	p.config = cfg
	return nil
}

// Config returns the loaded configuration, or nil before Initialize.
func (p *Project) Config() *config.Config {
	return p.config
}

// SchemaRoot returns the absolute path of the schema root directory.
func (p *Project) SchemaRoot() string {
	if p.config == nil {
		return filepath.Join(p.root, "db")
	}
	return filepath.Join(p.root, p.config.SchemaRoot)
}

// ManifestPath returns the absolute path of the manifest file.
func (p *Project) ManifestPath() string {
	name := consts.ManifestFile
	if p.config != nil {
		name = p.config.Manifest
	}
	return filepath.Join(p.SchemaRoot(), name)
}

func (p *Project) writeConfig(cfg *config.Config) error {
	path := filepath.Join(p.root, consts.ConfigFile)

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open config file for writing: %s", path)
	}
	defer func() { _ = f.Close() }()

	encoder := yaml.NewEncoder(f)
	if err := encoder.Encode(cfg); err != nil {
		return errors.Wrap(err, "failed to write updated config")
	}

	return errors.Wrap(encoder.Close(), "failed to close yaml encoder")
}

func (p *Project) ensureDirectory() error {
	dir, err := os.Stat(p.root)
	if err != nil {
		return errors.Wrapf(err, "failed to stat dir: %s", p.root)
	}

	if !dir.IsDir() {
		return errors.Errorf("%s is not a directory", p.root)
	}

	return nil
}
