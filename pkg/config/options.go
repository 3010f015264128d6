package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"sigs.k8s.io/yaml"

	"github.com/mandelsoft/dbinit/pkg/utils"
)

// CONFIG_FILE is the name of the tool configuration file
// searched in the home directory, the user config directory
// and the working directory.
const CONFIG_FILE = ".dbinit"

const ENV_PREFIX = "DBINIT_"

// Options are the tool options, which may be configured
// by config files and environment variables before
// command line flags are applied.
type Options struct {
	Manifest  *string `json:"manifest,omitempty"`
	Installer *string `json:"installer,omitempty"`
	EnvFile   *string `json:"envFile,omitempty"`
	LogLevel  *string `json:"logLevel,omitempty"`
	Report    *string `json:"report,omitempty"`
	Address   *string `json:"address,omitempty"`
}

// ConfigFiles returns the candidate config files in
// increasing priority.
func ConfigFiles() []string {
	var files []string
	if dir, err := os.UserHomeDir(); err == nil {
		files = append(files, filepath.Join(dir, CONFIG_FILE))
	}
	if dir, err := os.UserConfigDir(); err == nil {
		files = append(files, filepath.Join(dir, CONFIG_FILE))
	}
	return append(files, CONFIG_FILE)
}

// GetOptions reads the options from the given config files
// and the DBINIT_* environment variables.
func GetOptions(lookup func(string) (string, bool), files []string, fss ...vfs.FileSystem) (*Options, error) {
	fs := utils.OptionalDefaulted(vfs.FileSystem(osfs.OsFs), fss...)
	if lookup == nil {
		lookup = os.LookupEnv
	}

	var opts Options
	for _, f := range files {
		add, err := ReadOptions(f, fs)
		if err != nil {
			return nil, err
		}
		opts.Merge(add)
	}

	env := func(name string, field **string) {
		if v, ok := lookup(ENV_PREFIX + name); ok && v != "" {
			*field = utils.Pointer(v)
		}
	}
	env("MANIFEST", &opts.Manifest)
	env("INSTALLER", &opts.Installer)
	env("ENV_FILE", &opts.EnvFile)
	env("LOG_LEVEL", &opts.LogLevel)
	env("REPORT", &opts.Report)
	env("ADDRESS", &opts.Address)
	return &opts, nil
}

// ReadOptions reads a config file. A missing file
// provides nil options.
func ReadOptions(path string, fs vfs.FileSystem) (*Options, error) {
	data, err := vfs.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, vfs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var opts Options
	err = yaml.UnmarshalStrict(data, &opts)
	if err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	log.Debug("read config file {{path}}", "path", path)
	return &opts, nil
}

func (o *Options) Merge(add *Options) {
	if add == nil {
		return
	}
	merge(&o.Manifest, add.Manifest)
	merge(&o.Installer, add.Installer)
	merge(&o.EnvFile, add.EnvFile)
	merge(&o.LogLevel, add.LogLevel)
	merge(&o.Report, add.Report)
	merge(&o.Address, add.Address)
}

func merge(dst **string, src *string) {
	if src != nil {
		*dst = src
	}
}

// Get returns the configured value or the given default.
func Get(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}
