package installer_test

import (
	"bytes"
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	. "github.com/mandelsoft/dbinit/pkg/testutils"

	"github.com/mandelsoft/dbinit/pkg/installer"
	"github.com/mandelsoft/dbinit/pkg/manifest"
)

type recorder struct {
	commands []*installer.Command
	err      error
}

func (r *recorder) Run(ctx context.Context, cmd *installer.Command) error {
	r.commands = append(r.commands, cmd)
	return r.err
}

var _ = Describe("installer", func() {
	ctx := context.Background()

	Context("exec runner", func() {
		var stdout, stderr *bytes.Buffer
		var runner *installer.ExecRunner

		BeforeEach(func() {
			stdout = &bytes.Buffer{}
			stderr = &bytes.Buffer{}
			runner = installer.NewExecRunner(stdout, stderr)
		})

		It("succeeds", func() {
			MustBeSuccessful(runner.Run(ctx, &installer.Command{Path: "true"}))
		})

		It("streams output", func() {
			MustBeSuccessful(runner.Run(ctx, &installer.Command{
				Path: "sh",
				Args: []string{"-c", "echo $GREETING; echo oops >&2"},
				Env:  []string{"GREETING=hello"},
			}))
			Expect(stdout.String()).To(Equal("hello\n"))
			Expect(stderr.String()).To(Equal("oops\n"))
		})

		It("runs in the given directory", func() {
			MustBeSuccessful(runner.Run(ctx, &installer.Command{Path: "pwd", Dir: "/"}))
			Expect(stdout.String()).To(Equal("/\n"))
		})

		It("preserves the exit status", func() {
			err := runner.Run(ctx, &installer.Command{Path: "false"})
			var exitErr *installer.ExitError
			Expect(errors.As(err, &exitErr)).To(BeTrue())
			Expect(exitErr.ExitCode()).To(Equal(1))

			err = runner.Run(ctx, &installer.Command{Path: "sh", Args: []string{"-c", "exit 3"}})
			Expect(errors.As(err, &exitErr)).To(BeTrue())
			Expect(exitErr.ExitCode()).To(Equal(3))
			Expect(err).To(MatchError(`"sh -c exit 3" exited with status 3`))
		})

		It("reports missing executables", func() {
			err := runner.Run(ctx, &installer.Command{Path: "/nonexistent/installer"})
			Expect(err).To(MatchError(ContainSubstring(`cannot start "/nonexistent/installer"`)))
			var exitErr *installer.ExitError
			Expect(errors.As(err, &exitErr)).To(BeFalse())
		})

		It("kills the process group on cancellation", func() {
			cctx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
			defer cancel()
			start := time.Now()
			err := runner.Run(cctx, &installer.Command{Path: "sh", Args: []string{"-c", "sleep 30 & sleep 30; wait"}})
			Expect(errors.Is(err, context.DeadlineExceeded)).To(BeTrue())
			Expect(time.Since(start)).To(BeNumerically("<", 10*time.Second))
		})

		It("does not start on cancelled context", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			Expect(errors.Is(runner.Run(cctx, &installer.Command{Path: "true"}), context.Canceled)).To(BeTrue())
		})
	})

	Context("installers", func() {
		var rec *recorder
		var opts installer.Options

		BeforeEach(func() {
			rec = &recorder{}
			opts = installer.Options{Python: "/usr/bin/python3", Runner: rec}
		})

		It("runs pip for requirements", func() {
			i := Must(installer.New(installer.AUTO, manifest.REQUIREMENTS, opts))
			Expect(i.Name()).To(Equal(installer.PIP))
			MustBeSuccessful(i.Install(ctx, &manifest.Manifest{Path: "requirements.txt"}))
			Expect(rec.commands).To(ConsistOf(&installer.Command{
				Path: "/usr/bin/python3",
				Args: []string{"-m", "pip", "install", "-r", "requirements.txt"},
			}))
		})

		It("downloads go modules in the module directory", func() {
			i := Must(installer.New("", manifest.GOMOD, opts))
			Expect(i.Name()).To(Equal(installer.GO))
			MustBeSuccessful(i.Install(ctx, &manifest.Manifest{Path: "/src/app/go.mod"}))
			Expect(rec.commands).To(ConsistOf(&installer.Command{
				Path: "go",
				Args: []string{"mod", "download"},
				Dir:  "/src/app",
			}))
		})

		It("uses PYTHON from the environment", func() {
			GinkgoT().Setenv("PYTHON", "python3.11")
			opts.Python = ""
			i := Must(installer.New(installer.PIP, manifest.REQUIREMENTS, opts))
			Expect(i.(*installer.CommandInstaller).Command(&manifest.Manifest{Path: "r.txt"}).Path).To(Equal("python3.11"))
		})

		It("passes runner errors", func() {
			rec.err = &installer.ExitError{Command: "pip", Code: 2}
			i := Must(installer.New(installer.PIP, manifest.REQUIREMENTS, opts))
			Expect(i.Install(ctx, &manifest.Manifest{Path: "requirements.txt"})).To(BeIdenticalTo(rec.err))
		})

		It("skips installation", func() {
			i := Must(installer.New(installer.NONE, manifest.REQUIREMENTS, opts))
			MustBeSuccessful(i.Install(ctx, &manifest.Manifest{Path: "requirements.txt"}))
			Expect(rec.commands).To(BeEmpty())
		})

		It("rejects unknown installers", func() {
			_, err := installer.New("npm", manifest.REQUIREMENTS, opts)
			Expect(err).To(MatchError(`unknown installer "npm" (supported: auto, pip, go, none)`))
		})
	})
})
