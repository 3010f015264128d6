package pipeline

import (
	"path/filepath"

	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"sigs.k8s.io/yaml"

	"github.com/mandelsoft/dbinit/pkg/utils"
)

type Status string

const (
	STATUS_PENDING   Status = "pending"
	STATUS_SUCCEEDED Status = "succeeded"
	STATUS_FAILED    Status = "failed"
	STATUS_SKIPPED   Status = "skipped"
)

type StepReport struct {
	Name     string           `json:"name"`
	Status   Status           `json:"status"`
	Started  *utils.Timestamp `json:"started,omitempty"`
	Duration string           `json:"duration,omitempty"`
	Error    string           `json:"error,omitempty"`
	ExitCode int              `json:"exitCode,omitempty"`
	// Details are step specific results.
	Details interface{} `json:"details,omitempty"`
}

// Report describes a single pipeline run.
type Report struct {
	ID       string          `json:"id"`
	Pipeline string          `json:"pipeline"`
	Started  utils.Timestamp `json:"started"`
	Finished utils.Timestamp `json:"finished"`
	Status   Status          `json:"status"`
	ExitCode int             `json:"exitCode"`
	Steps    []*StepReport   `json:"steps"`
}

func (r *Report) Step(name string) *StepReport {
	for _, s := range r.Steps {
		if s.Name == name {
			return s
		}
	}
	return nil
}

func (r *Report) YAML() ([]byte, error) {
	return yaml.Marshal(r)
}

// Write stores the report as YAML file.
func (r *Report) Write(path string, fss ...vfs.FileSystem) error {
	fs := utils.OptionalDefaulted(vfs.FileSystem(osfs.OsFs), fss...)
	data, err := r.YAML()
	if err != nil {
		return err
	}
	err = fs.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return err
	}
	return vfs.WriteFile(fs, path, data, 0o644)
}
