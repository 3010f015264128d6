package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mandelsoft/dbinit/pkg/utils"
)

// Step is a single action of a pipeline.
type Step interface {
	Name() string
	// Run executes the step. The returned details are
	// recorded in the report, even if the step fails.
	Run(ctx context.Context) (interface{}, error)
}

type step struct {
	name string
	run  func(ctx context.Context) (interface{}, error)
}

func (s *step) Name() string {
	return s.name
}

func (s *step) Run(ctx context.Context) (interface{}, error) {
	return s.run(ctx)
}

func NewStep(name string, run func(ctx context.Context) (interface{}, error)) Step {
	return &step{name: name, run: run}
}

// Pipeline executes steps sequentially. The first failing step
// terminates the run and all following steps are skipped.
type Pipeline struct {
	name  string
	steps []Step
}

func New(name string, steps ...Step) *Pipeline {
	return &Pipeline{name: name, steps: steps}
}

func (p *Pipeline) Name() string {
	return p.name
}

func (p *Pipeline) Steps() []string {
	return utils.TransformSlice(p.steps, Step.Name)
}

// Run executes the pipeline. The report is always returned and
// the error, if any, is a *StepError.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		ID:       uuid.New().String(),
		Pipeline: p.name,
		Started:  utils.NewTimestamp(),
		Status:   STATUS_SUCCEEDED,
	}
	for _, s := range p.steps {
		report.Steps = append(report.Steps, &StepReport{Name: s.Name(), Status: STATUS_PENDING})
	}

	plog := log.WithValues("run", report.ID, "pipeline", p.name)
	plog.Info("starting {{pipeline}} with steps {{steps}}", "steps", p.Steps())

	var failure *StepError
	for i, s := range p.steps {
		sr := report.Steps[i]
		if failure != nil {
			sr.Status = STATUS_SKIPPED
			continue
		}
		slog := plog.WithValues("step", s.Name())

		start := time.Now()
		sr.Started = utils.Pointer(utils.NewTimestampFor(start))
		var details interface{}
		err := ctx.Err()
		if err == nil {
			slog.Info("running step {{step}}")
			details, err = s.Run(ctx)
		}
		sr.Duration = time.Since(start).Round(time.Millisecond).String()
		sr.Details = details

		if err != nil {
			failure = &StepError{Step: s.Name(), Err: err}
			sr.Status = STATUS_FAILED
			sr.Error = err.Error()
			sr.ExitCode = failure.ExitCode()
			slog.LogError(err, "step {{step}} failed")
			continue
		}
		sr.Status = STATUS_SUCCEEDED
		slog.Info("step {{step}} succeeded after {{duration}}", "duration", sr.Duration)
	}

	report.Finished = utils.NewTimestamp()
	if failure != nil {
		report.Status = STATUS_FAILED
		report.ExitCode = failure.ExitCode()
		return report, failure
	}
	plog.Info("{{pipeline}} succeeded")
	return report, nil
}
