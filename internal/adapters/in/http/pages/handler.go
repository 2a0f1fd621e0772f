// Package pages serves tenant static files from the pages root.
package pages

import (
	"net"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/spf13/afero"

	"github.com/acoshift/neppage/internal/boundaries/in"
)

// LocalPage is the directory serving requests that name no tenant.
const LocalPage = "local"

const ctxServePath = "neppage.serve_path"

// Handler routes a request to its tenant directory and serves the file.
type Handler struct {
	lookup    in.PageLookup
	fs        afero.Fs
	hostnames map[string]struct{}
}

// New creates a handler serving files below root.
// hostnames are the server's own names; tenants that do not allow local
// access are hidden when reached through one of them.
func New(lookup in.PageLookup, fs afero.Fs, root string, hostnames []string) *Handler {
	h := &Handler{
		lookup:    lookup,
		fs:        afero.NewReadOnlyFs(afero.NewBasePathFs(fs, root)),
		hostnames: make(map[string]struct{}, len(hostnames)),
	}
	for _, name := range hostnames {
		h.hostnames[strings.ToLower(name)] = struct{}{}
	}
	return h
}

// Register installs the resolver and the file handler on e.
func (h *Handler) Register(e *echo.Echo) {
	e.Use(h.Resolve)
	e.GET("/*", h.Serve)
	e.HEAD("/*", h.Serve)
}

// Resolve maps the request path to a file path below the pages root.
//
// The first path segment names the tenant. Unknown names are served from
// the local directory. A tenant with a fallback gets the fallback file for
// any path that does not exist.
func (h *Handler) Resolve(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		reqPath := path.Clean("/" + c.Request().URL.Path)
		name, _, _ := strings.Cut(strings.TrimPrefix(reqPath, "/"), "/")

		page, ok := h.lookup.PageByName(name)
		if !ok {
			c.Set(ctxServePath, path.Join("/", LocalPage, reqPath))
			return next(c)
		}

		if !page.AllowLocal && h.isLocalHost(c.Request().Host) {
			return echo.ErrNotFound
		}

		servePath := reqPath
		if page.Fallback != "" && !h.exists(reqPath) {
			servePath = path.Join("/", page.Name, page.Fallback)
		}
		c.Set(ctxServePath, servePath)
		return next(c)
	}
}

// Serve writes the resolved file. Directories serve their index.html.
func (h *Handler) Serve(c echo.Context) error {
	name, _ := c.Get(ctxServePath).(string)
	if name == "" {
		name = path.Clean("/" + c.Request().URL.Path)
	}

	f, info, err := h.open(name)
	if err != nil {
		return echo.ErrNotFound
	}
	if info.IsDir() {
		f.Close()
		if f, info, err = h.open(path.Join(name, "index.html")); err != nil {
			return echo.ErrNotFound
		}
		if info.IsDir() {
			f.Close()
			return echo.ErrNotFound
		}
	}
	defer f.Close()

	http.ServeContent(c.Response(), c.Request(), info.Name(), info.ModTime(), f)
	return nil
}

func (h *Handler) open(name string) (afero.File, os.FileInfo, error) {
	f, err := h.fs.Open(name)
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return f, info, nil
}

// exists reports whether p names a file or a directory. A directory
// without an index.html still 404s in Serve instead of falling back.
func (h *Handler) exists(p string) bool {
	_, err := h.fs.Stat(p)
	return err == nil
}

func (h *Handler) isLocalHost(hostport string) bool {
	host := hostport
	if hs, _, err := net.SplitHostPort(hostport); err == nil {
		host = hs
	}
	_, ok := h.hostnames[strings.ToLower(host)]
	return ok
}
