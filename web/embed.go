// Package web holds the HTML templates served by the app.
package web

import (
	"embed"
	"html/template"
	"time"

	"bukukas/pkg/rupiah"

	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var Templates embed.FS

// Funcs are the helpers available to every template.
var Funcs = template.FuncMap{
	"rupiah": func(d decimal.Decimal) string { return rupiah.Format(d) },
	"tanggal": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("02-01-2006")
	},
	"isoDate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02")
	},
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
}

// Parse builds the template set with Funcs registered.
func Parse() (*template.Template, error) {
	return template.New("").Funcs(Funcs).ParseFS(Templates, "templates/*.html")
}
