package content

import (
	"bytes"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Header is an ordered YAML mapping. Edits keep the position of existing keys
// so re-encoding only changes the fields that were set.
type Header struct {
	node *yaml.Node
}

// NewHeader returns an empty header.
func NewHeader() *Header {
	return &Header{node: &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}}
}

// Keys returns the top-level keys in order.
func (h *Header) Keys() []string {
	keys := make([]string, 0, len(h.node.Content)/2)
	for i := 0; i+1 < len(h.node.Content); i += 2 {
		keys = append(keys, h.node.Content[i].Value)
	}
	return keys
}

// Get returns the scalar value stored under key.
func (h *Header) Get(key string) (string, bool) {
	i := h.index(key)
	if i < 0 {
		return "", false
	}
	v := h.node.Content[i+1]
	if v.Kind != yaml.ScalarNode {
		return "", false
	}
	return v.Value, true
}

// Set stores a string value under key, in place when the key exists and
// appended otherwise.
func (h *Header) Set(key, value string) {
	h.SetAfter(key, value, "")
}

// SetAfter stores a string value under key. An existing key is replaced in
// place; a new key is inserted right after the key named after, or appended
// when that key is absent.
func (h *Header) SetAfter(key, value, after string) {
	v := stringNode(value)
	if i := h.index(key); i >= 0 {
		h.node.Content[i+1] = v
		return
	}
	pair := []*yaml.Node{stringNode(key), v}
	j := -1
	if after != "" {
		j = h.index(after)
	}
	if j < 0 {
		h.node.Content = append(h.node.Content, pair...)
		return
	}
	at := j + 2
	content := make([]*yaml.Node, 0, len(h.node.Content)+2)
	content = append(content, h.node.Content[:at]...)
	content = append(content, pair...)
	content = append(content, h.node.Content[at:]...)
	h.node.Content = content
}

// Clone returns a deep copy.
func (h *Header) Clone() *Header {
	return &Header{node: cloneNode(h.node)}
}

// Encode renders the header as YAML with two-space indentation.
func (h *Header) Encode() ([]byte, error) {
	if len(h.node.Content) == 0 {
		return nil, nil
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(h.node); err != nil {
		return nil, eris.Wrap(err, "content: encode yaml")
	}
	if err := enc.Close(); err != nil {
		return nil, eris.Wrap(err, "content: close yaml encoder")
	}
	return buf.Bytes(), nil
}

func (h *Header) index(key string) int {
	for i := 0; i+1 < len(h.node.Content); i += 2 {
		if h.node.Content[i].Value == key {
			return i
		}
	}
	return -1
}

func stringNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func cloneNode(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.Content != nil {
		c.Content = make([]*yaml.Node, len(n.Content))
		for i, child := range n.Content {
			c.Content[i] = cloneNode(child)
		}
	}
	c.Alias = cloneNode(n.Alias)
	return &c
}
