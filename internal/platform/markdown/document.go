// Package markdown reads and writes notes made of YAML frontmatter and a
// body that may hold generated blocks fenced by HTML comment markers.
package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const fence = "---\n"

type Document struct {
	Meta map[string]any
	Body string
}

// Parse splits content into frontmatter and body. Content without a leading
// fence is all body.
func Parse(content string) (Document, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if !strings.HasPrefix(content, fence) {
		return Document{Meta: map[string]any{}, Body: content}, nil
	}
	rest := content[len(fence):]
	var raw, body string
	switch {
	case strings.HasPrefix(rest, fence):
		body = rest[len(fence):]
	default:
		idx := strings.Index(rest, "\n"+fence)
		if idx < 0 {
			return Document{}, fmt.Errorf("frontmatter is not closed")
		}
		raw = rest[:idx]
		body = rest[idx+1+len(fence):]
	}
	meta := map[string]any{}
	if err := yaml.Unmarshal([]byte(raw), &meta); err != nil {
		return Document{}, fmt.Errorf("decode frontmatter: %w", err)
	}
	return Document{Meta: meta, Body: body}, nil
}

func (d Document) Render() (string, error) {
	var buf bytes.Buffer
	if len(d.Meta) > 0 {
		raw, err := yaml.Marshal(d.Meta)
		if err != nil {
			return "", fmt.Errorf("encode frontmatter: %w", err)
		}
		buf.WriteString(fence)
		buf.Write(raw)
		buf.WriteString(fence)
		if !strings.HasPrefix(d.Body, "\n") {
			buf.WriteString("\n")
		}
	}
	buf.WriteString(d.Body)
	return buf.String(), nil
}

func markers(name string) (string, string) {
	return "<!-- " + name + ":start -->", "<!-- " + name + ":end -->"
}

// SetBlock replaces the generated block called name, or appends it when the
// body has none. Text outside the markers is kept as written.
func (d *Document) SetBlock(name, generated string) {
	start, end := markers(name)
	block := start + "\n" + strings.TrimRight(generated, "\n") + "\n" + end

	i := strings.Index(d.Body, start)
	j := strings.Index(d.Body, end)
	switch {
	case i >= 0 && j > i:
		d.Body = d.Body[:i] + block + d.Body[j+len(end):]
	case strings.TrimSpace(d.Body) == "":
		d.Body = block + "\n"
	case strings.HasSuffix(d.Body, "\n"):
		d.Body += "\n" + block + "\n"
	default:
		d.Body += "\n\n" + block + "\n"
	}
}

// Block returns the generated text inside the named markers.
func (d Document) Block(name string) (string, bool) {
	start, end := markers(name)
	i := strings.Index(d.Body, start)
	j := strings.Index(d.Body, end)
	if i < 0 || j < i {
		return "", false
	}
	return strings.Trim(d.Body[i+len(start):j], "\n"), true
}
