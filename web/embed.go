package web

import "embed"

// TemplatesFS holds the page templates; layout.html defines the shared header and footer.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds stylesheets and scripts served under /static/.
//
//go:embed static/*
var StaticFS embed.FS
