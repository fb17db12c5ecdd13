package debugmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"KhiphopPipeline/internal/domain"
	"KhiphopPipeline/internal/ports"
)

// Writer dumps each processed item as a markdown file with YAML frontmatter.
type Writer struct {
	dir string
}

var _ ports.ItemRecorder = (*Writer)(nil)

// NewWriter returns a writer rooted at dir. The directory is created lazily.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

type frontmatter struct {
	Title        string   `yaml:"title"`
	SourceLink   string   `yaml:"sourceLink"`
	OriginLink   string   `yaml:"originLink"`
	Tag          string   `yaml:"tag,omitempty"`
	Domain       string   `yaml:"domain,omitempty"`
	ThumbnailURL string   `yaml:"thumbnailUrl,omitempty"`
	Category     string   `yaml:"category"`
	Artist       string   `yaml:"artist,omitempty"`
	WorkTitle    string   `yaml:"workTitle,omitempty"`
	ReleaseDate  string   `yaml:"releaseDate,omitempty"`
	Producers    []string `yaml:"producers,omitempty,flow"`
	CoverArtURL  string   `yaml:"coverArtUrl,omitempty"`
	CatalogLink  string   `yaml:"catalogLink,omitempty"`
}

// Record writes <id>_<slug>.md, replacing an earlier dump of the same item.
func (w *Writer) Record(item domain.CanonicalItem) error {
	if w.dir == "" {
		return nil
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create debug dir: %w", err)
	}

	data, err := Render(item)
	if err != nil {
		return err
	}

	path := filepath.Join(w.dir, FileName(item))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write debug markdown: %w", err)
	}
	return nil
}

// Render produces the markdown document for an item.
func Render(item domain.CanonicalItem) ([]byte, error) {
	meta := frontmatter{
		Title:        item.Title,
		SourceLink:   item.SourceLink,
		OriginLink:   item.OriginLink,
		Tag:          item.Tag,
		Domain:       item.OriginDomain,
		ThumbnailURL: item.ThumbnailURL,
		Category:     string(item.Category),
		Artist:       item.Artist,
		WorkTitle:    item.WorkTitle,
		ReleaseDate:  item.ReleaseDate,
		Producers:    item.Producers,
		CoverArtURL:  item.CoverArtURL,
		CatalogLink:  item.CatalogLink,
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(meta); err != nil {
		return nil, fmt.Errorf("encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode frontmatter: %w", err)
	}
	buf.WriteString("---\n\n")

	switch {
	case item.Synopsis != "":
		fmt.Fprintf(&buf, "## Description\n%s\n\n", item.Synopsis)
	case item.RawText != "":
		fmt.Fprintf(&buf, "## Text Content\n%s\n\n", item.RawText)
	}

	tag := item.Tag
	if tag == "" {
		tag = "N/A"
	}
	buf.WriteString("## Raw Reddit Data\n")
	fmt.Fprintf(&buf, "Title: %s\n", item.Title)
	fmt.Fprintf(&buf, "Flair: %s\n", tag)
	fmt.Fprintf(&buf, "Reddit Link: %s\n", item.SourceLink)
	fmt.Fprintf(&buf, "Source URL: %s\n", item.OriginLink)
	return buf.Bytes(), nil
}

var unsafeRun = regexp.MustCompile(`(?i)[^a-z0-9_\-]+`)

// FileName is "<id>_<slug>.md" with the slug reduced to ASCII word characters.
func FileName(item domain.CanonicalItem) string {
	slug := strings.ToLower(unsafeRun.ReplaceAllString(item.Title, "_"))
	return item.ID + "_" + slug + ".md"
}
