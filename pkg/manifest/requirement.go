package manifest

import (
	"fmt"
	"path"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"github.com/mandelsoft/dbinit/pkg/scanner"
)

// Operators are the supported version comparison operators.
// Longer operators precede their prefixes.
var Operators = []string{"===", "==", "!=", "<=", ">=", "~=", "<", ">"}

// RequirementOptions are the options accepted at the end
// of a requirement line.
var RequirementOptions = []string{"--hash", "--config-settings", "-C", "--global-option"}

var (
	optionTail = regexp.MustCompile(`\s-{1,2}[a-zA-Z]`)
	urlScheme  = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)
	namedURL   = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*\s*(\[[^\]]*\])?\s*@`)
	urlMarker  = regexp.MustCompile(`\s;`)
	hashValue  = regexp.MustCompile(`^(sha256|sha384|sha512):[0-9a-fA-F]+$`)
)

var archives = []string{".whl", ".zip", ".tar.gz", ".tgz", ".tar.bz2", ".tbz", ".tar.xz", ".txz", ".tar"}

type Specifier struct {
	Operator string `json:"operator"`
	Version  string `json:"version"`
}

func (s Specifier) String() string {
	return s.Operator + s.Version
}

// Requirement describes a single dependency of a manifest.
type Requirement struct {
	Name       string      `json:"name"`
	Extras     []string    `json:"extras,omitempty"`
	Specifiers []Specifier `json:"specifiers,omitempty"`
	URL        string      `json:"url,omitempty"`
	Marker     string      `json:"marker,omitempty"`
	// Direct is set for requirements given by their location only
	// (archive URL, VCS URL or local path).
	Direct  bool      `json:"direct,omitempty"`
	Options []*Option `json:"options,omitempty"`

	Source string `json:"source,omitempty"`
	Line   int    `json:"line,omitempty"`
}

func (r *Requirement) String() string {
	var b strings.Builder
	if r.Direct {
		b.WriteString(r.URL)
		if r.Marker != "" {
			b.WriteString(" ; " + r.Marker)
		}
		r.writeOptions(&b)
		return b.String()
	}
	b.WriteString(r.Name)
	if len(r.Extras) > 0 {
		b.WriteString("[" + strings.Join(r.Extras, ",") + "]")
	}
	if r.URL != "" {
		b.WriteString(" @ " + r.URL)
	}
	for i, s := range r.Specifiers {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(s.String())
	}
	if r.Marker != "" {
		b.WriteString("; " + r.Marker)
	}
	r.writeOptions(&b)
	return b.String()
}

func (r *Requirement) writeOptions(b *strings.Builder) {
	for _, o := range r.Options {
		b.WriteString(" " + o.Name + "=" + o.Value)
	}
}

// Key is the normalized project name used to
// identify a requirement. It is empty for direct
// requirements without known project name.
func (r *Requirement) Key() string {
	return NormalizeName(r.Name)
}

// merge adds the constraints of another requirement
// for the same project.
func (r *Requirement) merge(o *Requirement) error {
	if o.URL != "" {
		if r.URL != "" && r.URL != o.URL {
			return fmt.Errorf("conflicting locations for %q: %s and %s (first given at %s)", r.Name, r.URL, o.URL, r.Location())
		}
		r.URL = o.URL
	}
	for _, e := range o.Extras {
		if !slices.ContainsFunc(r.Extras, func(x string) bool { return NormalizeName(x) == NormalizeName(e) }) {
			r.Extras = append(r.Extras, e)
		}
	}
	for _, s := range o.Specifiers {
		if !slices.Contains(r.Specifiers, s) {
			r.Specifiers = append(r.Specifiers, s)
		}
	}
	r.Options = append(r.Options, o.Options...)
	return nil
}

func (r *Requirement) Location() string {
	if r.Source == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", r.Source, r.Line)
}

var separators = regexp.MustCompile("[-_.]+")

// NormalizeName maps a project name to its canonical
// lower case form with single dashes as separators.
func NormalizeName(name string) string {
	return separators.ReplaceAllString(strings.ToLower(name), "-")
}

func isNameRune(r rune) bool {
	return r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.')
}

func isVersionRune(r rune) bool {
	return !unicode.IsSpace(r) && r != ',' && r != ';' && r != ')'
}

func parseName(s scanner.Scanner, what string) (string, error) {
	s.SkipBlanks()
	name := s.While(isNameRune)
	if name == "" {
		return "", s.Errorf("%s expected", what)
	}
	if !isAlnum(rune(name[0])) || !isAlnum(rune(name[len(name)-1])) {
		return "", s.Errorf("invalid %s %q", what, name)
	}
	return name, nil
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func validName(name string) bool {
	if name == "" || !isAlnum(rune(name[0])) || !isAlnum(rune(name[len(name)-1])) {
		return false
	}
	return strings.IndexFunc(name, func(r rune) bool { return !isNameRune(r) }) < 0
}

// IsLocation reports whether a requirement is given by its
// location (URL, VCS URL, local path or archive file) instead
// of a project name.
func IsLocation(text string) bool {
	text = strings.TrimSpace(text)
	if urlScheme.MatchString(text) {
		return true
	}
	if namedURL.MatchString(text) {
		return false
	}
	head := text
	if i := strings.IndexAny(text, " \t;"); i >= 0 {
		head = text[:i]
	}
	if strings.HasPrefix(head, ".") || strings.HasPrefix(head, "~") || strings.ContainsAny(head, `/\`) {
		return true
	}
	lower := strings.ToLower(head)
	return slices.ContainsFunc(archives, func(s string) bool { return strings.HasSuffix(lower, s) })
}

// ParseRequirement parses a requirement line of the form
//
//	<name>[<extras>][<specifiers> | @ <url>][; <marker>] [<options>]
//	<location> [; <marker>] [<options>]
//
// Options are the per requirement options listed in RequirementOptions.
func ParseRequirement(line string) (*Requirement, error) {
	text := line
	var opts []*Option
	if loc := optionTail.FindStringIndex(line); loc != nil {
		var err error
		text = line[:loc[0]]
		opts, err = parseOptions(line[loc[0]:])
		if err != nil {
			return nil, err
		}
	}

	var r *Requirement
	var err error
	if IsLocation(text) {
		r, err = parseLocation(strings.TrimSpace(text))
	} else {
		r, err = parseNamed(text)
	}
	if err != nil {
		return nil, err
	}
	r.Options = opts
	return r, nil
}

func parseOptions(tail string) ([]*Option, error) {
	var opts []*Option
	fields := strings.Fields(tail)
	for i := 0; i < len(fields); i++ {
		name, value, found := strings.Cut(fields[i], "=")
		if !strings.HasPrefix(name, "-") {
			return nil, fmt.Errorf("unexpected %q", fields[i])
		}
		if !slices.Contains(RequirementOptions, name) {
			return nil, fmt.Errorf("unsupported requirement option %q", name)
		}
		if !found {
			if i+1 == len(fields) {
				return nil, fmt.Errorf("option %s requires a value", name)
			}
			i++
			value = fields[i]
		}
		if name == "--hash" && !hashValue.MatchString(value) {
			return nil, fmt.Errorf("invalid hash %q", value)
		}
		opts = append(opts, &Option{Name: name, Value: value})
	}
	return opts, nil
}

func parseLocation(text string) (*Requirement, error) {
	r := &Requirement{Direct: true}

	loc := text
	var marker string
	found := false
	if urlScheme.MatchString(text) {
		if m := urlMarker.FindStringIndex(text); m != nil {
			loc, marker, found = text[:m[0]], text[m[1]:], true
		}
	} else {
		loc, marker, found = strings.Cut(text, ";")
	}
	loc = strings.TrimSpace(loc)
	if found {
		r.Marker = strings.TrimSpace(marker)
		if r.Marker == "" {
			return nil, fmt.Errorf("environment marker expected")
		}
	}
	if i := strings.IndexAny(loc, " \t"); i >= 0 {
		return nil, fmt.Errorf("unexpected %q", strings.TrimSpace(loc[i:]))
	}
	r.URL = loc
	r.Name = locationName(loc)
	return r, nil
}

// locationName determines the project name of a location
// from an egg fragment or a wheel file name.
func locationName(loc string) string {
	base, frag, _ := strings.Cut(loc, "#")
	for _, p := range strings.Split(frag, "&") {
		if k, v, _ := strings.Cut(p, "="); k == "egg" {
			name, _, _ := strings.Cut(v, "[")
			if validName(name) {
				return name
			}
		}
	}
	base, _, _ = strings.Cut(base, "?")
	file := path.Base(base)
	if strings.HasSuffix(strings.ToLower(file), ".whl") {
		if name, _, _ := strings.Cut(file, "-"); validName(name) {
			return name
		}
	}
	return ""
}

func parseNamed(line string) (*Requirement, error) {
	s := scanner.NewScanner(line)

	name, err := parseName(s, "project name")
	if err != nil {
		return nil, err
	}
	r := &Requirement{Name: name}

	if s.SkipBlanks() == '[' {
		s.Next()
		for s.SkipBlanks() != ']' {
			if len(r.Extras) > 0 {
				if err := s.ConsumeRune(','); err != nil {
					return nil, err
				}
			}
			extra, err := parseName(s, "extra name")
			if err != nil {
				return nil, err
			}
			r.Extras = append(r.Extras, extra)
		}
		s.Next()
	}

	switch s.SkipBlanks() {
	case '@':
		s.Next()
		s.SkipBlanks()
		r.URL = s.While(func(r rune) bool { return !unicode.IsSpace(r) })
		if r.URL == "" {
			return nil, s.Errorf("URL expected")
		}
	case '(':
		s.Next()
		r.Specifiers, err = parseSpecifiers(s)
		if err != nil {
			return nil, err
		}
		if err := s.ConsumeRune(')'); err != nil {
			return nil, err
		}
	case ';', 0:
	default:
		r.Specifiers, err = parseSpecifiers(s)
		if err != nil {
			return nil, err
		}
	}

	if s.SkipBlanks() == ';' {
		s.Next()
		r.Marker = strings.TrimSpace(s.Rest())
		if r.Marker == "" {
			return nil, s.Errorf("environment marker expected")
		}
	}
	if !s.EOF() {
		return nil, s.Errorf("unexpected %q", string(s.Current()))
	}
	return r, nil
}

func parseSpecifiers(s scanner.Scanner) ([]Specifier, error) {
	var list []Specifier
	for {
		s.SkipBlanks()
		op := ""
		for _, o := range Operators {
			if s.ConsumeString(o) {
				op = o
				break
			}
		}
		if op == "" {
			return nil, s.Errorf("version operator expected")
		}
		s.SkipBlanks()
		v := s.While(isVersionRune)
		if v == "" {
			return nil, s.Errorf("version expected")
		}
		list = append(list, Specifier{Operator: op, Version: v})
		if s.SkipBlanks() != ',' {
			return list, nil
		}
		s.Next()
	}
}
