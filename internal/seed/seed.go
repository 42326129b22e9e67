// package seed loads fixture categories and pages into the directory.
//
// Fixtures are YAML documents; an embedded default set is used by `rango populate` when no file is given.
// Loading is idempotent: categories are matched by slug and pages by title within their category, so running
// it twice creates nothing the second time.
package seed

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/desertthunder/rango/internal/forms"
	"github.com/desertthunder/rango/internal/shared"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultFixtures []byte

// Fixtures is the document format of a seed file.
type Fixtures struct {
	Categories []CategoryFixture `yaml:"categories"`
}

// CategoryFixture describes one category and its pages.
type CategoryFixture struct {
	Name  string        `yaml:"name"`
	Likes int           `yaml:"likes"`
	Pages []PageFixture `yaml:"pages"`
}

// PageFixture describes one page.
type PageFixture struct {
	Title string `yaml:"title"`
	URL   string `yaml:"url"`
	Views int    `yaml:"views"`
}

// Default returns the embedded fixtures.
func Default() (*Fixtures, error) {
	return Load(bytes.NewReader(defaultFixtures))
}

// LoadFile reads fixtures from path.
func LoadFile(path string) (*Fixtures, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes and validates fixtures. Unknown keys are rejected.
func Load(r io.Reader) (*Fixtures, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var fixtures Fixtures
	if err := dec.Decode(&fixtures); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: failed to parse seed data: %v", shared.ErrInvalidInput, err)
	}

	if err := fixtures.Validate(); err != nil {
		return nil, err
	}
	return &fixtures, nil
}

// Validate applies the same rules as the site's forms, normalizing page URLs in place.
func (f *Fixtures) Validate() error {
	for i := range f.Categories {
		c := &f.Categories[i]

		form := forms.CategoryForm{Name: c.Name}
		if errs := form.Validate(); errs != nil {
			return fmt.Errorf("category %d: %w", i+1, errs)
		}
		c.Name = form.Name

		if c.Likes < 0 {
			return fmt.Errorf("%w: category %q: likes cannot be negative", shared.ErrInvalidInput, c.Name)
		}

		for j := range c.Pages {
			p := &c.Pages[j]
			form := forms.PageForm{Title: p.Title, URL: p.URL}
			if errs := form.Validate(); errs != nil {
				return fmt.Errorf("category %q page %d: %w", c.Name, j+1, errs)
			}
			p.Title, p.URL = form.Title, form.URL

			if p.Views < 0 {
				return fmt.Errorf("%w: page %q: views cannot be negative", shared.ErrInvalidInput, p.Title)
			}
		}
	}
	return nil
}

// Count returns the number of categories and pages described.
func (f *Fixtures) Count() (categories, pages int) {
	for _, c := range f.Categories {
		pages += len(c.Pages)
	}
	return len(f.Categories), pages
}
