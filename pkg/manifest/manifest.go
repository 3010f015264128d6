package manifest

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/vfs"

	"github.com/mandelsoft/dbinit/pkg/utils"
)

var ErrManifestNotFound = errors.New("manifest not found")

type Format string

const (
	REQUIREMENTS Format = "requirements"
	GOMOD        Format = "gomod"
)

const (
	REQUIREMENTS_FILE = "requirements.txt"
	GOMOD_FILE        = "go.mod"
)

// DetectFormat determines the manifest format by the file name.
func DetectFormat(path string) Format {
	if filepath.Base(path) == GOMOD_FILE {
		return GOMOD
	}
	return REQUIREMENTS
}

// Option is an installer option line passed through
// to the installer.
type Option struct {
	Name   string `json:"name"`
	Value  string `json:"value,omitempty"`
	Source string `json:"source"`
	Line   int    `json:"line"`
}

func (o *Option) String() string {
	if o.Value == "" {
		return o.Name
	}
	return o.Name + " " + o.Value
}

// Manifest is a validated dependency manifest.
type Manifest struct {
	Path         string         `json:"path"`
	Format       Format         `json:"format"`
	Requirements []*Requirement `json:"requirements"`
	Options      []*Option      `json:"options,omitempty"`
	// Files lists all read files in include order.
	Files []string `json:"files"`
}

// Names lists the requirement names. Direct requirements
// without project name are listed by their location.
func (m *Manifest) Names() []string {
	return utils.TransformSlice(m.Requirements, func(r *Requirement) string {
		if r.Name == "" {
			return r.URL
		}
		return r.Name
	})
}

func (m *Manifest) Requirement(name string) *Requirement {
	key := NormalizeName(name)
	for _, r := range m.Requirements {
		if r.Key() == key {
			return r
		}
	}
	return nil
}

// Read reads and validates the manifest found at the given path.
// The format is determined by the file name.
func Read(path string, fss ...vfs.FileSystem) (*Manifest, error) {
	fs := utils.OptionalDefaulted(vfs.FileSystem(osfs.OsFs), fss...)

	m := &Manifest{
		Path:   path,
		Format: DetectFormat(path),
	}
	var err error
	switch m.Format {
	case GOMOD:
		err = readGoMod(fs, m)
	default:
		r := &reader{fs: fs, manifest: m, seen: map[string]*Requirement{}}
		err = r.read(path, "", 0)
	}
	if err != nil {
		return nil, err
	}
	log.Debug("manifest {{path}} ({{format}}) with {{count}} requirements", "path", path, "format", m.Format, "count", len(m.Requirements))
	return m, nil
}

type reader struct {
	fs       vfs.FileSystem
	manifest *Manifest
	seen     map[string]*Requirement
	stack    []string
}

func readFile(fs vfs.FileSystem, path string, from string, line int) ([]byte, error) {
	data, err := vfs.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, vfs.ErrNotExist) {
			err = fmt.Errorf("%w: %s", ErrManifestNotFound, path)
		}
		if from != "" {
			err = fmt.Errorf("%s:%d: %w", from, line, err)
		}
		return nil, err
	}
	return data, nil
}

var comment = regexp.MustCompile(`(^|\s+)#.*$`)

// logicalLine is a line after joining continuation lines.
type logicalLine struct {
	no   int
	text string
}

func logicalLines(data string) []logicalLine {
	var result []logicalLine
	var cur *logicalLine

	lines := strings.Split(strings.ReplaceAll(data, "\r\n", "\n"), "\n")
	for i, l := range lines {
		if cur == nil {
			cur = &logicalLine{no: i + 1}
		}
		if strings.HasSuffix(l, "\\") {
			cur.text += strings.TrimSuffix(l, "\\")
			continue
		}
		cur.text += l
		result = append(result, *cur)
		cur = nil
	}
	if cur != nil {
		result = append(result, *cur)
	}
	return result
}

func (r *reader) read(path string, from string, line int) error {
	if cycle := utils.Cycle(filepath.Clean(path), r.stack...); cycle != nil {
		return fmt.Errorf("%s:%d: include cycle: %s", from, line, strings.Join(cycle, " -> "))
	}
	data, err := readFile(r.fs, path, from, line)
	if err != nil {
		return err
	}
	r.stack = append(r.stack, filepath.Clean(path))
	defer func() { r.stack = r.stack[:len(r.stack)-1] }()
	r.manifest.Files = append(r.manifest.Files, path)

	for _, l := range logicalLines(string(data)) {
		text := strings.TrimSpace(comment.ReplaceAllString(l.text, ""))
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "-") {
			err = r.option(path, l.no, text)
		} else {
			err = r.requirement(path, l.no, text)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *reader) requirement(path string, line int, text string) error {
	req, err := ParseRequirement(text)
	if err != nil {
		return fmt.Errorf("%s:%d: invalid requirement: %w", path, line, err)
	}
	req.Source = path
	req.Line = line
	for _, o := range req.Options {
		o.Source = path
		o.Line = line
	}

	if !req.Direct {
		// constraints for the same project and marker are combined
		id := req.Key() + ";" + req.Marker
		if old := r.seen[id]; old != nil {
			if err := old.merge(req); err != nil {
				return fmt.Errorf("%s:%d: %w", path, line, err)
			}
			log.Debug("requirement {{name}} merged with {{location}}", "name", req.Name, "location", old.Location())
			return nil
		}
		r.seen[id] = req
	}
	r.manifest.Requirements = append(r.manifest.Requirements, req)
	return nil
}

func splitOption(text string) (string, string) {
	name, value, found := strings.Cut(text, "=")
	if found && !strings.ContainsAny(name, " \t") {
		return name, strings.TrimSpace(value)
	}
	fields := strings.Fields(text)
	return fields[0], strings.TrimSpace(strings.TrimPrefix(text, fields[0]))
}

func (r *reader) option(path string, line int, text string) error {
	name, value := splitOption(text)
	switch name {
	case "-r", "--requirement":
		if value == "" {
			return fmt.Errorf("%s:%d: option %s requires a file", path, line, name)
		}
		if !filepath.IsAbs(value) {
			value = filepath.Join(filepath.Dir(path), value)
		}
		return r.read(value, path, line)
	default:
		r.manifest.Options = append(r.manifest.Options, &Option{
			Name:   name,
			Value:  value,
			Source: path,
			Line:   line,
		})
	}
	return nil
}
