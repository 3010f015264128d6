package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mandelsoft/dbinit/pkg/manifest"
	"github.com/mandelsoft/dbinit/pkg/utils"
)

const (
	AUTO = "auto"
	PIP  = "pip"
	GO   = "go"
	NONE = "none"
)

// Installers lists the supported installer names.
var Installers = []string{AUTO, PIP, GO, NONE}

// Installer installs the dependencies described by a manifest.
type Installer interface {
	Name() string
	Install(ctx context.Context, m *manifest.Manifest) error
}

type Options struct {
	// Python is the python executable used for pip.
	// It defaults to the PYTHON environment variable or python.
	Python string
	Runner Runner
}

func (o *Options) python() string {
	if o.Python != "" {
		return o.Python
	}
	return utils.OptionalDefaulted("python", os.Getenv("PYTHON"))
}

func (o *Options) runner() Runner {
	if o.Runner != nil {
		return o.Runner
	}
	return NewExecRunner(nil, nil)
}

// New provides the installer with the given name.
// An auto installer is resolved according to the format
// of the manifest.
func New(name string, format manifest.Format, opts Options) (Installer, error) {
	if name == "" || name == AUTO {
		name = PIP
		if format == manifest.GOMOD {
			name = GO
		}
	}
	switch name {
	case PIP:
		return NewCommandInstaller(PIP, opts.runner(), func(m *manifest.Manifest) *Command {
			return &Command{
				Path: opts.python(),
				Args: []string{"-m", "pip", "install", "-r", m.Path},
			}
		}), nil
	case GO:
		return NewCommandInstaller(GO, opts.runner(), func(m *manifest.Manifest) *Command {
			return &Command{
				Path: "go",
				Args: []string{"mod", "download"},
				Dir:  filepath.Dir(m.Path),
			}
		}), nil
	case NONE:
		return &none{}, nil
	default:
		return nil, fmt.Errorf("unknown installer %q (supported: %s)", name, strings.Join(Installers, ", "))
	}
}

// CommandInstaller installs dependencies by executing a command
// derived from the manifest.
type CommandInstaller struct {
	name    string
	runner  Runner
	command func(m *manifest.Manifest) *Command
}

var _ Installer = (*CommandInstaller)(nil)

func NewCommandInstaller(name string, runner Runner, cmd func(m *manifest.Manifest) *Command) *CommandInstaller {
	return &CommandInstaller{
		name:    name,
		runner:  runner,
		command: cmd,
	}
}

func (i *CommandInstaller) Name() string {
	return i.name
}

// Command returns the command executed for the given manifest.
func (i *CommandInstaller) Command(m *manifest.Manifest) *Command {
	return i.command(m)
}

func (i *CommandInstaller) Install(ctx context.Context, m *manifest.Manifest) error {
	cmd := i.command(m)
	log.Info("installing {{count}} requirements from {{manifest}} with {{installer}}", "count", len(m.Requirements), "manifest", m.Path, "installer", i.name)
	log.Debug("executing {{command}}", "command", cmd.String())
	return i.runner.Run(ctx, cmd)
}

type none struct{}

func (n *none) Name() string {
	return NONE
}

func (n *none) Install(ctx context.Context, m *manifest.Manifest) error {
	log.Info("skipping installation of {{count}} requirements from {{manifest}}", "count", len(m.Requirements), "manifest", m.Path)
	return nil
}
