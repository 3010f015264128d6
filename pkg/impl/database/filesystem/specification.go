package filesystem

import (
	"context"
	"fmt"
	"net/url"

	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/vfs"

	"github.com/mandelsoft/dbinit/pkg/database"
	"github.com/mandelsoft/dbinit/pkg/utils"
)

type Specification struct {
	Path       string
	FileSystem vfs.FileSystem
}

var _ database.Specification = (*Specification)(nil)

func NewSpecification(path string, fss ...vfs.FileSystem) *Specification {
	return &Specification{
		Path:       path,
		FileSystem: utils.OptionalDefaulted(vfs.FileSystem(osfs.OsFs), fss...),
	}
}

func (s *Specification) Create(ctx context.Context) (database.Engine, error) {
	return New(s.Path, s.FileSystem)
}

// URLSpecification maps file:///<dir> and file:<relative dir>.
func URLSpecification(u *url.URL) (database.Specification, error) {
	if u.Host != "" && u.Host != "localhost" {
		return nil, fmt.Errorf("file URL must not refer to host %q", u.Host)
	}
	path := u.Opaque
	if path == "" {
		path = u.Path
	}
	if path == "" {
		return nil, fmt.Errorf("file URL requires a directory path")
	}
	return NewSpecification(path), nil
}

func init() {
	database.Register("file", URLSpecification)
}
