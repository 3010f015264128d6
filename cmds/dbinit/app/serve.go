package app

import (
	"context"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/mandelsoft/dbinit/pkg/bootstrap"
	"github.com/mandelsoft/dbinit/pkg/config"
	"github.com/mandelsoft/dbinit/pkg/ctxutil"
	"github.com/mandelsoft/dbinit/pkg/healthz"
	"github.com/mandelsoft/dbinit/pkg/server"
	"github.com/mandelsoft/dbinit/pkg/service"
)

const CHECK_SCHEMA = "schema"

type Serve struct {
	cmd *cobra.Command

	mainopts *Options
	address  string
	period   time.Duration
	reports  string
}

func NewServe(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve <options>",
		Short: "serve health endpoints reporting the schema readiness",
		Long: `
The following endpoints are served:

  /health    schema readiness and environment (503 if not ready)
  /healthz   periodic readiness check (500 if outdated)
  /tables    registered tables and their state
  /reports/  run reports found in the --reports directory
`,
	}
	c := &Serve{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run() }
	flags := cmd.Flags()
	flags.StringVarP(&c.address, "address", "a", config.Get(opts.cfg.Address, ":8080"), "listen address")
	flags.DurationVarP(&c.period, "period", "p", 30*time.Second, "readiness check period")
	flags.StringVarP(&c.reports, "reports", "", "", "directory with run reports")
	return cmd
}

func (c *Serve) Run() error {
	ctx := c.cmd.Context()
	bopts := c.mainopts.Bootstrap(c.cmd)

	srv := server.NewServer(c.address, true)
	readiness := NewReadiness(bopts)
	readiness.Register(srv)

	if c.reports != "" {
		h, err := server.NewReportHandlerFor(c.reports, "/reports")
		if err != nil {
			return err
		}
		h.RegisterHandler(srv)
	}

	healthz.Start(CHECK_SCHEMA, c.period)
	defer healthz.End(CHECK_SCHEMA)

	g := service.NewGroup(ctx)
	err := g.Start(
		srv.AsService(10*time.Second),
		service.Func("schema check", func(ctx context.Context) error {
			readiness.Loop(ctx, c.period)
			return nil
		}),
	)
	if err != nil {
		return err
	}
	return g.Wait()
}

// Readiness reports the schema readiness of the configured database.
type Readiness struct {
	opts        *bootstrap.Options
	environment string
}

func NewReadiness(opts *bootstrap.Options) *Readiness {
	env := config.Defaults().Environment
	if s, err := opts.Settings(); err == nil {
		env = s.Environment
	} else {
		log.Warn("settings incomplete: {{error}}", "error", err.Error())
	}
	return &Readiness{opts: opts, environment: env}
}

func (p *Readiness) Register(srv *server.Server) {
	srv.Handle("/health", http.HandlerFunc(p.Health))
	srv.Handle("/tables", http.HandlerFunc(p.Tables))
}

type Health struct {
	Status      string   `json:"status"`
	Environment string   `json:"environment"`
	Missing     []string `json:"missing,omitempty"`
	Error       string   `json:"error,omitempty"`
}

func (p *Readiness) Health(w http.ResponseWriter, r *http.Request) {
	h := &Health{Status: "healthy", Environment: p.environment}

	status, err := bootstrap.Check(r.Context(), p.opts)
	switch {
	case err != nil:
		h.Status = "unhealthy"
		h.Error = err.Error()
	case !status.Ready():
		h.Status = "unhealthy"
		h.Missing = status.Missing
	default:
		server.WriteJSON(w, http.StatusOK, h)
		return
	}
	server.WriteJSON(w, http.StatusServiceUnavailable, h)
}

func (p *Readiness) Tables(w http.ResponseWriter, r *http.Request) {
	list, err := bootstrap.Tables(r.Context(), p.opts)
	if err != nil {
		server.WriteError(w, http.StatusServiceUnavailable, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, list)
}

// Loop checks the schema periodically and ticks the
// health check as long as the schema is ready.
func (p *Readiness) Loop(ctx context.Context, period time.Duration) {
	for {
		p.check(ctx, period)
		select {
		case <-ctx.Done():
			return
		case <-time.After(period):
		}
	}
}

func (p *Readiness) check(ctx context.Context, period time.Duration) {
	ctx = ctxutil.TimeoutContext(ctx, period)
	defer ctxutil.Cancel(ctx)

	status, err := bootstrap.Check(ctx, p.opts)
	if err != nil {
		log.LogError(err, "schema check failed")
		return
	}
	if !status.Ready() {
		log.Warn("schema not ready, missing tables {{missing}}", "missing", status.Missing)
		return
	}
	healthz.Tick(CHECK_SCHEMA)
}
