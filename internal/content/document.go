// Package content reads and writes venue record files: a YAML header between
// "---" delimiter lines followed by a markdown body.
package content

import (
	"bytes"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/casimadrid/casi-cli/internal/resilience"
)

const (
	delimiter = "---"
	bom       = "\ufeff"
)

// Document is a parsed content file.
type Document struct {
	Path   string
	Header *Header
	Body   string
}

// Parse splits data into header and body. The first line must be "---" and
// the header ends at the next "---" line. A single blank line after the
// closing delimiter is a separator and not part of the body.
func Parse(path string, data []byte) (*Document, error) {
	text := strings.TrimPrefix(string(data), bom)

	first, rest, ok := cutLine(text)
	if !ok && first == "" {
		return nil, &resilience.FormatError{Path: path, Reason: "empty file"}
	}
	if strings.TrimRight(first, " \t\r") != delimiter {
		return nil, &resilience.FormatError{Path: path, Reason: "missing opening header delimiter"}
	}

	var headerLines []string
	closed := false
	for {
		line, after, more := cutLine(rest)
		if strings.TrimRight(line, " \t\r") == delimiter {
			rest = after
			closed = true
			break
		}
		headerLines = append(headerLines, strings.TrimRight(line, "\r"))
		if !more {
			break
		}
		rest = after
	}
	if !closed {
		return nil, &resilience.FormatError{Path: path, Reason: "missing closing header delimiter"}
	}

	header, err := parseHeader(strings.Join(headerLines, "\n"))
	if err != nil {
		return nil, &resilience.FormatError{Path: path, Reason: err.Error()}
	}

	switch {
	case strings.HasPrefix(rest, "\r\n"):
		rest = rest[2:]
	case strings.HasPrefix(rest, "\n"):
		rest = rest[1:]
	}

	return &Document{Path: path, Header: header, Body: rest}, nil
}

// cutLine returns the first line of s without its "\n", the remainder after
// it, and whether a newline was found.
func cutLine(s string) (line, rest string, found bool) {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i], s[i+1:], true
	}
	return s, "", false
}

// BuildMDX assembles a content file from a header and a body. When author is
// not empty it is set on a copy of the header, replacing an existing value in
// place or going right after the title.
func BuildMDX(h *Header, body, author string) ([]byte, error) {
	if h == nil {
		h = NewHeader()
	}
	out := h.Clone()
	if author != "" {
		out.SetAfter("author", author, "title")
	}

	encoded, err := out.Encode()
	if err != nil {
		return nil, eris.Wrap(err, "content: encode header")
	}

	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")
	buf.Write(encoded)
	buf.WriteString(delimiter + "\n\n")
	buf.WriteString(body)
	return buf.Bytes(), nil
}

func parseHeader(text string) (*Header, error) {
	if strings.TrimSpace(text) == "" {
		return NewHeader(), nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, eris.Wrap(err, "invalid header yaml")
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return NewHeader(), nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, eris.New("header is not a key-value mapping")
	}
	return &Header{node: root}, nil
}
