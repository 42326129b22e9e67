package models

// DirectoryExport is a serializable snapshot of every category and its pages.
type DirectoryExport struct {
	Categories []CategoryExport `json:"categories" yaml:"categories"`
}

// CategoryExport is the export form of a [Category].
type CategoryExport struct {
	Name  string       `json:"name" yaml:"name"`
	Slug  string       `json:"slug" yaml:"slug"`
	Likes int          `json:"likes" yaml:"likes"`
	Pages []PageExport `json:"pages" yaml:"pages"`
}

// PageExport is the export form of a [Page].
type PageExport struct {
	Title string `json:"title" yaml:"title"`
	URL   string `json:"url" yaml:"url"`
	Views int    `json:"views" yaml:"views"`
}

// NewCategoryExport builds the export form of c and its pages.
func NewCategoryExport(c *Category, pages []*Page) CategoryExport {
	out := CategoryExport{Name: c.Name(), Slug: c.Slug(), Likes: c.Likes(), Pages: make([]PageExport, 0, len(pages))}
	for _, p := range pages {
		out.Pages = append(out.Pages, PageExport{Title: p.Title(), URL: p.URL(), Views: p.Views()})
	}
	return out
}

// PageCount returns the number of pages across all categories.
func (e *DirectoryExport) PageCount() int {
	n := 0
	for _, c := range e.Categories {
		n += len(c.Pages)
	}
	return n
}
