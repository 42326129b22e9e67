// package formatter provides functions to export directory data to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/rango/internal/models"
	"github.com/desertthunder/rango/internal/shared"
)

// Format names an export encoding.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatJSON     Format = "json"
)

// Formats lists the supported export formats in display order.
var Formats = []Format{FormatCSV, FormatMarkdown, FormatText, FormatJSON}

// ParseFormat resolves a format name. "md" and "txt" are accepted as aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unsupported export format %q", shared.ErrInvalidInput, name)
	}
}

// Extension returns the file extension written for f.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatText:
		return "txt"
	default:
		return string(f)
	}
}

// ExportToCSV converts a DirectoryExport to CSV format with columns: Category, Slug, Likes, Page, URL, Views
//
// Each page is one row; a category without pages gets a single row with empty page columns.
func ExportToCSV(export *models.DirectoryExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Category", "Slug", "Likes", "Page", "URL", "Views"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, c := range export.Categories {
		likes := strconv.Itoa(c.Likes)
		if len(c.Pages) == 0 {
			if err := writer.Write([]string{c.Name, c.Slug, likes, "", "", ""}); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
			continue
		}
		for _, p := range c.Pages {
			record := []string{c.Name, c.Slug, likes, p.Title, p.URL, strconv.Itoa(p.Views)}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a DirectoryExport to Markdown with one section per category.
func ExportToMarkdown(export *models.DirectoryExport, title string) ([]byte, error) {
	var buf bytes.Buffer

	if title == "" {
		title = "Rango"
	}
	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Categories**: %d\n", len(export.Categories))
	fmt.Fprintf(&buf, "**Pages**: %d\n", export.PageCount())

	for _, c := range export.Categories {
		fmt.Fprintf(&buf, "\n## %s\n\n", c.Name)
		fmt.Fprintf(&buf, "%s · `/category/%s/`\n\n", plural(c.Likes, "like"), c.Slug)
		if len(c.Pages) == 0 {
			buf.WriteString("_No pages currently in category._\n")
			continue
		}
		for i, p := range c.Pages {
			fmt.Fprintf(&buf, "%d. [%s](%s) (%s)\n", i+1, escapeLinkText(p.Title), p.URL, plural(p.Views, "view"))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts a DirectoryExport to plain text format
func ExportToText(export *models.DirectoryExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Categories: %d\n", len(export.Categories))
	fmt.Fprintf(&buf, "Pages: %d\n", export.PageCount())

	for _, c := range export.Categories {
		fmt.Fprintf(&buf, "\n%s (%s)\n", c.Name, plural(c.Likes, "like"))
		for i, p := range c.Pages {
			fmt.Fprintf(&buf, "  %d. %s - %s\n", i+1, p.Title, p.URL)
		}
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a DirectoryExport to indented JSON.
func ExportToJSON(export *models.DirectoryExport) ([]byte, error) {
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// Export encodes export in the given format.
func Export(export *models.DirectoryExport, format Format, title string) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown:
		return ExportToMarkdown(export, title)
	case FormatText:
		return ExportToText(export)
	case FormatJSON:
		return ExportToJSON(export)
	default:
		return nil, fmt.Errorf("%w: unsupported export format %q", shared.ErrInvalidInput, format)
	}
}

// WriteExport writes export to path in the given format.
//
// Defaults to rango_directory.{ext} as the filename.
func WriteExport(export *models.DirectoryExport, format Format, path, title string) (string, error) {
	if path == "" {
		path = "rango_directory." + format.Extension()
	}

	data, err := Export(export, format, title)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func escapeLinkText(s string) string {
	return strings.NewReplacer("[", `\[`, "]", `\]`).Replace(s)
}
