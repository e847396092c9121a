package content

import (
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/casimadrid/casi-cli/internal/venue"
)

// pubDateLayout is the date format of the pubDate header field.
const pubDateLayout = "2006-01-02"

type frontmatter struct {
	Title        string        `yaml:"title"`
	Author       string        `yaml:"author"`
	Neighborhood string        `yaml:"neighborhood"`
	Address      string        `yaml:"address,omitempty"`
	PubDate      string        `yaml:"pubDate,omitempty"`
	MapsURL      string        `yaml:"mapsUrl,omitempty"`
	Metrics      venue.Metrics `yaml:"metrics"`
}

// RecordHeader builds the header of a venue record in its canonical key order.
func RecordHeader(r venue.Record) (*Header, error) {
	fm := frontmatter{
		Title:        r.Title,
		Author:       r.Author,
		Neighborhood: r.Neighborhood,
		Address:      r.Address,
		MapsURL:      r.MapsURL,
		Metrics:      r.Metrics,
	}
	if !r.PublishedAt.IsZero() {
		fm.PubDate = r.PublishedAt.Format(pubDateLayout)
	}

	var node yaml.Node
	if err := node.Encode(&fm); err != nil {
		return nil, eris.Wrapf(err, "content: encode header for %q", r.Slug)
	}
	return &Header{node: &node}, nil
}

// Render produces the full file contents of a venue record.
func Render(r venue.Record) ([]byte, error) {
	h, err := RecordHeader(r)
	if err != nil {
		return nil, err
	}
	return BuildMDX(h, ensureTrailingNewline(r.Body), "")
}

func ensureTrailingNewline(s string) string {
	if s == "" || s[len(s)-1] == '\n' {
		return s
	}
	return s + "\n"
}
