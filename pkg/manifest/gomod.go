package manifest

import (
	"fmt"

	"github.com/mandelsoft/vfs/pkg/vfs"
	"golang.org/x/mod/modfile"
)

// readGoMod maps the require directives of a go.mod file
// to requirements pinned to the required version.
func readGoMod(fs vfs.FileSystem, m *Manifest) error {
	data, err := readFile(fs, m.Path, "", 0)
	if err != nil {
		return err
	}
	f, err := modfile.Parse(m.Path, data, nil)
	if err != nil {
		return fmt.Errorf("invalid go module manifest: %w", err)
	}
	if f.Module == nil {
		return fmt.Errorf("%s: module directive missing", m.Path)
	}
	m.Files = append(m.Files, m.Path)

	for _, r := range f.Require {
		req := &Requirement{
			Name:       r.Mod.Path,
			Specifiers: []Specifier{{Operator: "==", Version: r.Mod.Version}},
			Source:     m.Path,
		}
		if r.Syntax != nil {
			req.Line = r.Syntax.Start.Line
		}
		if r.Indirect {
			req.Marker = "indirect"
		}
		m.Requirements = append(m.Requirements, req)
	}
	for _, r := range f.Replace {
		m.Options = append(m.Options, &Option{
			Name:   "replace",
			Value:  r.Old.String() + " => " + r.New.String(),
			Source: m.Path,
			Line:   r.Syntax.Start.Line,
		})
	}
	return nil
}
