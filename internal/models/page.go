package models

import (
	"fmt"
	"unicode/utf8"

	"github.com/desertthunder/rango/internal/shared"
)

const (
	MaxPageTitleLength = 128
	MaxPageURLLength   = 200
)

// Page is a titled link belonging to exactly one [Category], with a views counter.
type Page struct {
	record
	categoryID string
	title      string
	url        string
	views      int
}

var _ Model = (*Page)(nil)

// NewPage creates a page bound to categoryID with zero views.
func NewPage(sequence int, categoryID, title, url string) *Page {
	return &Page{
		record:     newRecord(sequence),
		categoryID: categoryID,
		title:      title,
		url:        url,
	}
}

func (p *Page) CategoryID() string { return p.categoryID }
func (p *Page) Title() string      { return p.title }
func (p *Page) URL() string        { return p.url }
func (p *Page) Views() int         { return p.views }

func (p *Page) SetTitle(title string) { p.title = title }
func (p *Page) SetURL(url string)     { p.url = url }

// SetViews is used when loading rows; increments go through the repository.
func (p *Page) SetViews(views int) { p.views = views }

// Validate checks the category reference, title, url and views.
func (p *Page) Validate() error {
	switch {
	case p.categoryID == "":
		return fmt.Errorf("%w: page must belong to a category", shared.ErrInvalidInput)
	case p.title == "":
		return fmt.Errorf("%w: page title is required", shared.ErrInvalidInput)
	case utf8.RuneCountInString(p.title) > MaxPageTitleLength:
		return fmt.Errorf("%w: page title exceeds %d characters", shared.ErrInvalidInput, MaxPageTitleLength)
	case p.url == "":
		return fmt.Errorf("%w: page url is required", shared.ErrInvalidInput)
	case utf8.RuneCountInString(p.url) > MaxPageURLLength:
		return fmt.Errorf("%w: page url exceeds %d characters", shared.ErrInvalidInput, MaxPageURLLength)
	case p.views < 0:
		return fmt.Errorf("%w: views cannot be negative", shared.ErrInvalidInput)
	}
	return nil
}
