package handlers

import (
	"embed"
	"html/template"
	"log"
	"net/http"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(
	template.New("").Funcs(template.FuncMap{
		"joinTags": func(tags []string) string { return strings.Join(tags, ", ") },
	}).ParseFS(templateFS, "templates/*.html"),
)

const untitledLabel = "Untitled"

func renderPage(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("handlers: error rendering %s: %v", name, err)
	}
}
