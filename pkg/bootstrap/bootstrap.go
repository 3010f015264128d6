package bootstrap

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mandelsoft/dbinit/pkg/database"
	"github.com/mandelsoft/dbinit/pkg/installer"
	"github.com/mandelsoft/dbinit/pkg/manifest"
	"github.com/mandelsoft/dbinit/pkg/pipeline"
	"github.com/mandelsoft/dbinit/pkg/schema"
)

const (
	PIPELINE     = "bootstrap"
	STEP_INSTALL = "install"
	STEP_MIGRATE = "migrate"
)

type InstallResult struct {
	Manifest     string          `json:"manifest"`
	Format       manifest.Format `json:"format"`
	Installer    string          `json:"installer"`
	Requirements []string        `json:"requirements,omitempty"`
	Files        []string        `json:"files,omitempty"`
}

type MigrateResult struct {
	Engine  string `json:"engine"`
	Dialect string `json:"dialect"`
	schema.CreateResult
	Statements []string `json:"statements,omitempty"`
}

// Install validates the manifest and runs the installer.
// Nothing is executed for invalid manifests.
func Install(ctx context.Context, opts *Options) (*InstallResult, error) {
	m, err := manifest.Read(opts.manifest(), opts.fs())
	if err != nil {
		return nil, err
	}
	i, err := installer.New(opts.Installer, m.Format, installer.Options{
		Python: opts.Python,
		Runner: opts.Runner,
	})
	if err != nil {
		return nil, err
	}

	result := &InstallResult{
		Manifest:     m.Path,
		Format:       m.Format,
		Installer:    i.Name(),
		Requirements: m.Names(),
		Files:        m.Files,
	}
	if opts.DryRun {
		log.Info("dry run: skipping {{installer}} for {{manifest}}", "installer", i.Name(), "manifest", m.Path)
		return result, nil
	}
	return result, i.Install(ctx, m)
}

// Open opens and pings the configured engine.
func Open(ctx context.Context, opts *Options) (database.Engine, error) {
	u, err := opts.URL()
	if err != nil {
		return nil, err
	}
	e, err := database.Open(ctx, u)
	if err != nil {
		return nil, err
	}
	err = e.Ping(ctx)
	if err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// Migrate creates all missing tables. For dry runs the
// statements for the missing tables are written to the
// configured output instead.
func Migrate(ctx context.Context, opts *Options) (*MigrateResult, error) {
	e, err := Open(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer e.Close()

	md := opts.metadata()
	result := &MigrateResult{
		Engine:  e.URL(),
		Dialect: e.Dialect(),
	}
	elog := log.WithValues("engine", e.URL())

	if opts.DryRun {
		missing, existing, err := md.MissingTables(ctx, e, schema.WithTables(opts.Tables...))
		if err != nil {
			return nil, err
		}
		result.Skipped = existing
		for _, t := range missing {
			result.Created = append(result.Created, t.Name)
		}
		result.Statements, err = e.Statements(missing...)
		if err != nil {
			return nil, err
		}
		elog.Info("dry run: {{count}} tables would be created", "count", len(missing))
		return result, writeStatements(opts.out(), result.Statements)
	}

	r, err := md.CreateAll(ctx, e, schema.WithTables(opts.Tables...))
	if err != nil {
		return nil, err
	}
	result.CreateResult = *r
	elog.Info("schema ready")
	return result, nil
}

func writeStatements(w io.Writer, stmts []string) error {
	for _, s := range stmts {
		if !strings.HasSuffix(s, "\n") {
			s += ";\n"
		}
		_, err := fmt.Fprint(w, s)
		if err != nil {
			return err
		}
	}
	return nil
}

// Pipeline provides the bootstrap pipeline. Without explicit steps
// it consists of the install step followed by the migrate step.
func Pipeline(opts *Options, steps ...string) (*pipeline.Pipeline, error) {
	if len(steps) == 0 {
		steps = []string{STEP_INSTALL, STEP_MIGRATE}
	}
	var list []pipeline.Step
	for _, s := range steps {
		switch s {
		case STEP_INSTALL:
			list = append(list, pipeline.NewStep(s, func(ctx context.Context) (interface{}, error) {
				r, err := Install(ctx, opts)
				if r == nil {
					return nil, err
				}
				return r, err
			}))
		case STEP_MIGRATE:
			list = append(list, pipeline.NewStep(s, func(ctx context.Context) (interface{}, error) {
				r, err := Migrate(ctx, opts)
				if r == nil {
					return nil, err
				}
				return r, err
			}))
		default:
			return nil, fmt.Errorf("unknown step %q", s)
		}
	}
	return pipeline.New(PIPELINE, list...), nil
}

// Run executes the complete bootstrap.
func Run(ctx context.Context, opts *Options) (*pipeline.Report, error) {
	p, err := Pipeline(opts)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx)
}
