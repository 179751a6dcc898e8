package service

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tactics-catalog/internal/domain"
)

var defaultPages = map[string]domain.StaticPage{
	"terms": {
		Name:  "terms",
		Title: "Terms of Service",
		Body:  "Tactics in this library are shared for personal use. Share codes remain the work of their authors.",
	},
	"privacy": {
		Name:  "privacy",
		Title: "Privacy Policy",
		Body:  "Liked tactics are stored against an anonymous device id. No account or personal data is collected.",
	},
	"contact": {
		Name:  "contact",
		Title: "Contact",
		Body:  "Send corrections and new tactics to the catalog maintainers.",
	},
	"about": {
		Name:  "about",
		Title: "About",
		Body:  "A library of football tactics, formations and strategies from legendary managers and teams.",
	},
}

// Pages serves the fixed informational pages
type Pages struct {
	pages map[string]domain.StaticPage
}

// NewPages returns the built-in pages. When dir is not empty, a file named
// <page>.md in it replaces that page's body.
func NewPages(dir string) (*Pages, error) {
	pages := make(map[string]domain.StaticPage, len(defaultPages))
	for name, page := range defaultPages {
		pages[name] = page
	}

	if dir != "" {
		for name, page := range pages {
			body, err := os.ReadFile(filepath.Join(dir, name+".md"))
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("reading page %s: %w", name, err)
			}
			page.Body = strings.TrimSpace(string(body))
			pages[name] = page
		}
	}

	return &Pages{pages: pages}, nil
}

// Get returns the page with the given name
func (p *Pages) Get(name string) (domain.StaticPage, error) {
	page, ok := p.pages[name]
	if !ok {
		return domain.StaticPage{}, domain.ErrPageNotFound
	}
	return page, nil
}
