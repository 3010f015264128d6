package app

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/spf13/cobra"

	"github.com/mandelsoft/dbinit/pkg/bootstrap"
	"github.com/mandelsoft/dbinit/pkg/config"
	"github.com/mandelsoft/dbinit/pkg/installer"
	"github.com/mandelsoft/dbinit/pkg/manifest"
	"github.com/mandelsoft/dbinit/pkg/schema"
	"github.com/mandelsoft/dbinit/pkg/utils"
)

// UsageError reports invalid command line usage.
type UsageError struct {
	error
}

func (e *UsageError) Unwrap() error {
	return e.error
}

func (e *UsageError) ExitCode() int {
	return 2
}

func usageError(err error) error {
	if err == nil {
		return nil
	}
	return &UsageError{err}
}

// Environment describes the environment of the tool.
// Unset fields default to the process environment.
type Environment struct {
	FileSystem  vfs.FileSystem
	Lookup      func(string) (string, bool)
	ConfigFiles []string
	Runner      installer.Runner
	Metadata    *schema.MetaData
}

type Options struct {
	env *Environment
	cfg *config.Options
	err error

	manifest    string
	installer   string
	databaseURL string
	envFile     string
	logLevel    string
	report      string
}

func (o *Options) lookup(name string) (string, bool) {
	if o.env.Lookup != nil {
		return o.env.Lookup(name)
	}
	return os.LookupEnv(name)
}

// Bootstrap provides the options for the bootstrap operations.
func (o *Options) Bootstrap(cmd *cobra.Command) *bootstrap.Options {
	python, _ := o.lookup("PYTHON")
	return &bootstrap.Options{
		FileSystem:  o.env.FileSystem,
		Manifest:    o.manifest,
		Installer:   o.installer,
		Python:      python,
		Runner:      o.env.Runner,
		DatabaseURL: o.databaseURL,
		EnvFile:     o.envFile,
		Lookup:      o.lookup,
		Metadata:    o.env.Metadata,
		Out:         cmd.OutOrStdout(),
	}
}

func New(fss ...vfs.FileSystem) *cobra.Command {
	return NewCommand(&Environment{
		FileSystem: utils.OptionalDefaulted(vfs.FileSystem(osfs.OsFs), fss...),
	})
}

func NewCommand(env *Environment) *cobra.Command {
	opts := &Options{env: env}

	files := env.ConfigFiles
	if files == nil {
		files = config.ConfigFiles()
	}
	opts.cfg, opts.err = config.GetOptions(opts.lookup, files, utils.OptionalDefaulted(vfs.FileSystem(osfs.OsFs), env.FileSystem))
	if opts.cfg == nil {
		opts.cfg = &config.Options{}
	}

	maincmd := &cobra.Command{
		Use:   "dbinit <options> [<cmd> <args>]",
		Short: "install dependencies and create the database schema",
		Long: `
Without sub command the dependencies listed in the manifest are installed
and afterwards all tables of the application models missing in the
database configured by DATABASE_URL are created. Existing tables are
never altered, so repeated runs are harmless.

The exit status of a failing installer is passed through.
`,
		Args: func(cmd *cobra.Command, args []string) error {
			return usageError(cobra.NoArgs(cmd, args))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.err != nil {
				return opts.err
			}
			return usageError(ConfigureLogging(opts.logLevel))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunSteps(cmd, opts)
		},
	}
	maincmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(err)
	})

	flags := maincmd.PersistentFlags()
	flags.StringVarP(&opts.manifest, "manifest", "m", config.Get(opts.cfg.Manifest, manifest.REQUIREMENTS_FILE), "dependency manifest")
	flags.StringVarP(&opts.installer, "installer", "i", config.Get(opts.cfg.Installer, installer.AUTO), "installer ("+strings.Join(installer.Installers, ", ")+")")
	flags.StringVarP(&opts.databaseURL, "database-url", "d", "", "database URL (default from DATABASE_URL)")
	flags.StringVarP(&opts.envFile, "env-file", "e", config.Get(opts.cfg.EnvFile, config.ENV_FILE), "env file with settings")
	flags.StringVarP(&opts.logLevel, "log-level", "L", config.Get(opts.cfg.LogLevel, "info"), "log level")
	flags.StringVarP(&opts.report, "report", "r", config.Get(opts.cfg.Report, ""), "write run report to file (yaml)")

	maincmd.AddCommand(NewInstall(opts))
	maincmd.AddCommand(NewMigrate(opts))
	maincmd.AddCommand(NewTables(opts))
	maincmd.AddCommand(NewSQL(opts))
	maincmd.AddCommand(NewCheck(opts))
	maincmd.AddCommand(NewServe(opts))

	for _, c := range maincmd.Commands() {
		if c.Args == nil {
			c.Args = maincmd.Args
		}
	}
	return maincmd
}

// RunSteps executes the given bootstrap steps, all
// steps if none is given.
func RunSteps(cmd *cobra.Command, opts *Options, steps ...string) error {
	return runSteps(cmd, opts, opts.Bootstrap(cmd), steps...)
}

func runSteps(cmd *cobra.Command, opts *Options, bopts *bootstrap.Options, steps ...string) error {
	p, err := bootstrap.Pipeline(bopts, steps...)
	if err != nil {
		return err
	}
	r, err := p.Run(cmd.Context())

	if opts.report != "" {
		werr := r.Write(opts.report, opts.env.FileSystem)
		if werr != nil {
			werr = fmt.Errorf("cannot write report %s: %w", opts.report, werr)
			if err == nil {
				return werr
			}
			err = errors.Join(err, werr)
		}
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, s := range r.Steps {
		switch d := s.Details.(type) {
		case *bootstrap.InstallResult:
			if bopts.DryRun {
				fmt.Fprintf(out, "-- %d requirements from %s validated\n", len(d.Requirements), d.Manifest)
				continue
			}
			fmt.Fprintf(out, "installed %d requirements from %s using %s\n", len(d.Requirements), d.Manifest, d.Installer)
		case *bootstrap.MigrateResult:
			switch {
			case bopts.DryRun:
				fmt.Fprintf(out, "-- %d tables would be created\n", len(d.Created))
			case len(d.Created) == 0:
				fmt.Fprintf(out, "all %d tables already exist in %s\n", len(d.Skipped), d.Engine)
			default:
				fmt.Fprintf(out, "created tables %s in %s\n", strings.Join(d.Created, ", "), d.Engine)
			}
		}
	}
	return nil
}
