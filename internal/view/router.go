package view

import "github.com/relabs-tech/whereiam/internal/geo"

// Router tracks the path a view is showing and decides the single
// replace-style rewrite from the root path to the first position.
type Router struct {
	path      string
	rewritten bool
}

// NewRouter starts at path; an empty path is the root.
func NewRouter(path string) *Router {
	if path == "" {
		path = RootPath
	}
	return &Router{path: path}
}

// Path is the path the view currently shows.
func (r *Router) Path() string {
	return r.path
}

// Observe returns the path to replace the current one with. It fires at
// most once, and only while the view is still on the root path.
func (r *Router) Observe(p geo.Position) (string, bool) {
	if r.rewritten || r.path != RootPath {
		return "", false
	}
	r.rewritten = true
	r.path = FormatPath(p)
	return r.path, true
}
