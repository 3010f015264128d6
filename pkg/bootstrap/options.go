package bootstrap

import (
	"io"
	"os"

	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/vfs"

	"github.com/mandelsoft/dbinit/pkg/config"
	"github.com/mandelsoft/dbinit/pkg/installer"
	"github.com/mandelsoft/dbinit/pkg/manifest"
	"github.com/mandelsoft/dbinit/pkg/models"
	"github.com/mandelsoft/dbinit/pkg/schema"
	"github.com/mandelsoft/dbinit/pkg/utils"
)

// Options describe a bootstrap run.
type Options struct {
	FileSystem vfs.FileSystem

	// Manifest is the dependency manifest, requirements.txt if empty.
	Manifest string
	// Installer is the installer name, auto if empty.
	Installer string
	Python    string
	Runner    installer.Runner

	// DatabaseURL overrides the DATABASE_URL setting.
	// If empty the settings are loaded and validated.
	DatabaseURL string
	EnvFile     string
	Lookup      func(string) (string, bool)

	// Metadata is the table registry, the application models if nil.
	Metadata *schema.MetaData
	// Tables restricts the schema operations to the given tables.
	Tables []string

	DryRun bool
	// Out receives the DDL of dry runs.
	Out io.Writer
}

func (o *Options) fs() vfs.FileSystem {
	return utils.OptionalDefaulted(vfs.FileSystem(osfs.OsFs), o.FileSystem)
}

func (o *Options) manifest() string {
	return utils.OptionalDefaulted(manifest.REQUIREMENTS_FILE, o.Manifest)
}

func (o *Options) metadata() *schema.MetaData {
	if o.Metadata != nil {
		return o.Metadata
	}
	return models.Metadata
}

func (o *Options) out() io.Writer {
	if o.Out != nil {
		return o.Out
	}
	return os.Stdout
}

// Settings loads the application settings.
func (o *Options) Settings() (*config.Settings, error) {
	l := &config.Loader{
		FileSystem: o.FileSystem,
		EnvFile:    o.EnvFile,
		Lookup:     o.Lookup,
	}
	return l.Load()
}

// URL determines the database URL.
func (o *Options) URL() (string, error) {
	if o.DatabaseURL != "" {
		return o.DatabaseURL, nil
	}
	s, err := o.Settings()
	if err != nil {
		return "", err
	}
	return s.DatabaseURL, nil
}
