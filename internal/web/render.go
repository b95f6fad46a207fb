package web

import (
	"embed"
	"fmt"
	"io"

	"github.com/google/safehtml/template"
)

//go:generate go tool templ generate

//go:embed templates/*
var templateFS embed.FS

const (
	pageTitle         = "calculate42"
	historyTimeLayout = "2006-01-02 15:04:05"
)

// indexView feeds templates/index.html
type indexView struct {
	Title      string
	Expression string
	Reply      string
	Answered   bool
	Failed     bool
}

// pageRenderer renders the HTML surfaces
type pageRenderer struct {
	index *template.Template
}

func newPageRenderer() (*pageRenderer, error) {
	trustedFS := template.TrustedFSFromEmbed(templateFS)

	index, err := template.New("index.html").ParseFS(trustedFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse index template: %w", err)
	}

	return &pageRenderer{index: index}, nil
}

func (p *pageRenderer) renderIndex(w io.Writer, vm indexView) error {
	return p.index.Execute(w, vm)
}
