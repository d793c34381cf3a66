package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gin-contrib/static"
)

var (
	//go:embed templates/*.html
	templateFS embed.FS
	//go:embed static
	staticFS embed.FS
)

// PageTemplate is the name of the single page template.
const PageTemplate = "index.html"

// StaticPrefix is the URL prefix of the embedded assets.
const StaticPrefix = "/static"

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"join": strings.Join,
	}).ParseFS(templateFS, "templates/*.html")
}

// StaticFiles serves the embedded stylesheet under StaticPrefix.
func StaticFiles() (static.ServeFileSystem, error) {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, err
	}
	return assetFS{FileSystem: http.FS(sub)}, nil
}

// assetFS reports only regular files as present so directory paths fall
// through to the router.
type assetFS struct {
	http.FileSystem
}

func (a assetFS) Exists(prefix, path string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	name := strings.TrimPrefix(path, prefix)
	if name == "" || name == "/" {
		return false
	}
	f, err := a.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()
	info, err := f.Stat()
	return err == nil && !info.IsDir()
}
