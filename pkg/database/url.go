package database

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/mandelsoft/dbinit/pkg/utils"
)

// SpecificationFactory creates a Specification for a database URL
// with a registered scheme.
type SpecificationFactory func(u *url.URL) (Specification, error)

var (
	lock      sync.Mutex
	factories = map[string]SpecificationFactory{}
)

// Register registers a specification factory for a URL scheme.
func Register(scheme string, f SpecificationFactory) {
	lock.Lock()
	defer lock.Unlock()
	factories[strings.ToLower(scheme)] = f
}

func Schemes() []string {
	lock.Lock()
	defer lock.Unlock()
	return utils.OrderedMapKeys(factories)
}

// ParseURL maps a database URL to the specification
// of the engine registered for its scheme.
func ParseURL(raw string) (Specification, error) {
	if raw == "" {
		return nil, fmt.Errorf("database URL missing")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid database URL %q", Redact(raw))
	}
	scheme := strings.ToLower(u.Scheme)
	// dialect+driver URLs like postgresql+psycopg2:// select the dialect only.
	if i := strings.Index(scheme, "+"); i > 0 {
		scheme = scheme[:i]
	}

	lock.Lock()
	f := factories[scheme]
	lock.Unlock()

	if f == nil {
		return nil, fmt.Errorf("%w %q (supported: %s)", ErrUnknownScheme, u.Scheme, strings.Join(Schemes(), ", "))
	}
	return f(u)
}

// Open creates the engine for a database URL.
func Open(ctx context.Context, raw string) (Engine, error) {
	spec, err := ParseURL(raw)
	if err != nil {
		return nil, err
	}
	e, err := spec.Create(ctx)
	if err != nil {
		return nil, err
	}
	log.Debug("opened {{dialect}} engine for {{url}}", "dialect", e.Dialect(), "url", e.URL())
	return e, nil
}

// Redact removes the password from a database URL.
func Redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid URL>"
	}
	return u.Redacted()
}
