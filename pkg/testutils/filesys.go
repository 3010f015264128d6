package testutils

import (
	"path"

	"github.com/mandelsoft/vfs/pkg/composefs"
	"github.com/mandelsoft/vfs/pkg/layerfs"
	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/projectionfs"
	"github.com/mandelsoft/vfs/pkg/readonlyfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
)

// TestFileSystem provides a file system with the content of
// the directory path mounted at path. Modifications are written
// to a temporary layer, the original content is never changed.
func TestFileSystem(path string, readonly bool) (vfs.FileSystem, error) {
	tmpfs, err := osfs.NewTempFileSystem()
	if err != nil {
		return nil, err
	}
	defer func() {
		if tmpfs != nil {
			vfs.Cleanup(tmpfs)
		}
	}()

	err = tmpfs.MkdirAll(path, 0o700)
	if err != nil {
		return nil, err
	}

	overlay, err := projectionfs.New(osfs.OsFs, path)
	if err != nil {
		return nil, err
	}
	if readonly {
		overlay = readonlyfs.New(overlay)
	} else {
		o, err := projectionfs.New(tmpfs, path)
		if err != nil {
			return nil, err
		}
		overlay = layerfs.New(o, overlay)
	}

	fs := composefs.New(tmpfs, "/tmp")
	err = fs.Mount(path, overlay)
	if err != nil {
		return nil, err
	}

	tmpfs = nil
	return fs, nil
}

// MemoryFileSystem provides a memory based file system
// with the given files.
func MemoryFileSystem(files map[string]string) (vfs.FileSystem, error) {
	fs := memoryfs.New()
	for p, content := range files {
		err := fs.MkdirAll(path.Dir(p), 0o700)
		if err != nil {
			return nil, err
		}
		err = vfs.WriteFile(fs, p, []byte(content), 0o600)
		if err != nil {
			return nil, err
		}
	}
	return fs, nil
}
