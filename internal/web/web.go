// Package web holds the server-rendered HTML pages.
package web

import (
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var files embed.FS

// Pages lists every renderable page. Each is parsed together with the shared
// layout and executed by its file name, e.g. "login.html".
var Pages = []string{
	"login",
	"register",
	"forgot-password",
	"reset-password",
	"todos",
	"edit-todo",
}

// Templates parses every page once at startup.
func Templates() (map[string]*template.Template, error) {
	set := make(map[string]*template.Template, len(Pages))
	for _, name := range Pages {
		t, err := template.New(name).ParseFS(files, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		set[name] = t
	}
	return set, nil
}
