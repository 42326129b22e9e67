package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/rango/internal/models"
)

var (
	_ list.Item = categoryItem{}
	_ list.Item = pageItem{}
)

// categoryItem wraps [models.Category] to implement [list.Item].
type categoryItem struct {
	category *models.Category
}

func (i categoryItem) FilterValue() string { return i.category.Name() }
func (i categoryItem) Title() string       { return i.category.Name() }
func (i categoryItem) Description() string {
	return fmt.Sprintf("%s • /category/%s/", count(i.category.Likes(), "like"), i.category.Slug())
}

// pageItem wraps [models.Page] to implement [list.Item].
type pageItem struct {
	page *models.Page
}

func (i pageItem) FilterValue() string { return i.page.Title() }
func (i pageItem) Title() string       { return i.page.Title() }
func (i pageItem) Description() string {
	return fmt.Sprintf("%s • %s", count(i.page.Views(), "view"), i.page.URL())
}

func count(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
