// Package web holds the page templates and static assets compiled into the
// server and the daily-close renderer.
package web

import "embed"

// TemplatesFS holds the index page and the printable daily close.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and page script served under /static/.
//
//go:embed static/*
var StaticFS embed.FS
