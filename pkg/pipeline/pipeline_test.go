package pipeline_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	. "github.com/mandelsoft/dbinit/pkg/testutils"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"sigs.k8s.io/yaml"

	"github.com/mandelsoft/dbinit/pkg/pipeline"
)

type exitError int

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", int(e)) }
func (e exitError) ExitCode() int { return int(e) }

var _ = Describe("pipeline", func() {
	ctx := context.Background()

	var calls []string
	record := func(name string, err error) pipeline.Step {
		return pipeline.NewStep(name, func(ctx context.Context) (interface{}, error) {
			calls = append(calls, name)
			return map[string]string{"step": name}, err
		})
	}

	BeforeEach(func() {
		calls = nil
	})

	It("runs all steps in order", func() {
		p := pipeline.New("bootstrap", record("install", nil), record("migrate", nil))
		Expect(p.Steps()).To(Equal([]string{"install", "migrate"}))

		r := Must(p.Run(ctx))
		Expect(calls).To(Equal([]string{"install", "migrate"}))
		Expect(r.Status).To(Equal(pipeline.STATUS_SUCCEEDED))
		Expect(r.ExitCode).To(Equal(0))
		Expect(r.Pipeline).To(Equal("bootstrap"))
		Must(uuid.Parse(r.ID))
		Expect(r.Step("install").Status).To(Equal(pipeline.STATUS_SUCCEEDED))
		Expect(r.Step("migrate").Details).To(Equal(map[string]string{"step": "migrate"}))
		Expect(r.Step("migrate").Started).NotTo(BeNil())
	})

	It("stops at the first failing step", func() {
		p := pipeline.New("bootstrap", record("install", errors.New("boom")), record("migrate", nil))
		r, err := p.Run(ctx)
		Expect(err).To(MatchError(`step "install" failed: boom`))
		Expect(calls).To(Equal([]string{"install"}))

		Expect(r.Status).To(Equal(pipeline.STATUS_FAILED))
		Expect(r.ExitCode).To(Equal(1))
		Expect(r.Step("install").Status).To(Equal(pipeline.STATUS_FAILED))
		Expect(r.Step("install").Error).To(Equal("boom"))
		Expect(r.Step("migrate").Status).To(Equal(pipeline.STATUS_SKIPPED))
		Expect(r.Step("migrate").Started).To(BeNil())
	})

	It("keeps completed steps on later failures", func() {
		p := pipeline.New("bootstrap", record("install", nil), record("migrate", errors.New("unreachable")))
		r, err := p.Run(ctx)
		Expect(err).To(HaveOccurred())
		Expect(r.Step("install").Status).To(Equal(pipeline.STATUS_SUCCEEDED))
		Expect(r.Step("migrate").Status).To(Equal(pipeline.STATUS_FAILED))
	})

	It("propagates exit codes", func() {
		cause := fmt.Errorf("installer: %w", exitError(3))
		r, err := pipeline.New("bootstrap", record("install", cause)).Run(ctx)

		var serr *pipeline.StepError
		Expect(errors.As(err, &serr)).To(BeTrue())
		Expect(serr.Step).To(Equal("install"))
		Expect(serr.ExitCode()).To(Equal(3))
		Expect(errors.Is(err, cause)).To(BeTrue())
		Expect(r.ExitCode).To(Equal(3))
		Expect(pipeline.ExitCode(err)).To(Equal(3))
	})

	It("maps errors to exit codes", func() {
		Expect(pipeline.ExitCode(nil)).To(Equal(0))
		Expect(pipeline.ExitCode(errors.New("x"))).To(Equal(1))
		Expect(pipeline.ExitCode(exitError(0))).To(Equal(1))
		Expect(pipeline.ExitCode(exitError(42))).To(Equal(42))
	})

	It("does not start steps on cancelled context", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		r, err := pipeline.New("bootstrap", record("install", nil), record("migrate", nil)).Run(cctx)
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		Expect(calls).To(BeEmpty())
		Expect(r.Step("install").Status).To(Equal(pipeline.STATUS_FAILED))
		Expect(r.Step("migrate").Status).To(Equal(pipeline.STATUS_SKIPPED))
	})

	It("writes the report", func() {
		fs := memoryfs.New()
		r, _ := pipeline.New("bootstrap", record("install", exitError(2)), record("migrate", nil)).Run(ctx)
		MustBeSuccessful(r.Write("/reports/run.yaml", fs))

		var read map[string]interface{}
		MustBeSuccessful(yaml.Unmarshal(Must(vfs.ReadFile(fs, "/reports/run.yaml")), &read))
		Expect(read["status"]).To(Equal("failed"))
		Expect(read["exitCode"]).To(BeNumerically("==", 2))
		Expect(read["steps"]).To(HaveLen(2))
		Expect(read["id"]).To(Equal(r.ID))
	})
})
