package glsample

import (
	"path/filepath"

	"github.com/gogpu/hello"
	"github.com/gogpu/hello/internal/watch"
	"github.com/gogpu/hello/shader"
)

// Reloader rebuilds a program when its override files change.
type Reloader struct {
	dir, name string
	watcher   *watch.Watcher
	rebuild   func(shader.GLSL) error
}

// NewReloader watches the override files of the named program in dir and
// hands fresh sources to rebuild.
func NewReloader(dir, name string, rebuild func(shader.GLSL) error, opts ...watch.Option) (*Reloader, error) {
	vert, frag := shader.GLSLPaths(dir, name)
	vert, frag = filepath.Base(vert), filepath.Base(frag)
	opts = append(opts, watch.WithFilter(func(base string) bool {
		return base == vert || base == frag
	}))
	w, err := watch.New(dir, opts...)
	if err != nil {
		return nil, err
	}
	return &Reloader{dir: dir, name: name, watcher: w, rebuild: rebuild}, nil
}

// Poll rebuilds the program if its files changed. It reports whether the
// rebuild succeeded; on failure the error is logged and returned, and the
// caller keeps its previous program.
func (r *Reloader) Poll() (bool, error) {
	paths, ok := r.watcher.Poll()
	if !ok {
		return false, nil
	}
	src, err := shader.LoadGLSL(r.dir, r.name)
	if err == nil {
		err = r.rebuild(src)
	}
	if err != nil {
		hello.Logger().Warn("glsample: reload failed, keeping previous program",
			"program", r.name, "err", err)
		return false, err
	}
	hello.Logger().Info("glsample: program reloaded", "program", r.name, "files", paths)
	return true, nil
}

// Close stops watching.
func (r *Reloader) Close() error {
	return r.watcher.Close()
}
