// Package parser derives the title and tags of a session note written in
// Markdown, with optional YAML frontmatter.
package parser

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	tagRe  = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
	slugRe = regexp.MustCompile(`[^a-z0-9]+`)
)

const maxSlug = 48

// Outline is what the note says about itself.
type Outline struct {
	Title string
	Tags  []string
	Body  string
}

// Parse extracts the outline of a note. Malformed frontmatter is treated as
// body text.
func Parse(text string) Outline {
	fm, body := splitFrontmatter(text)
	return Outline{
		Title: deriveTitle(fm, body),
		Tags:  extractTags(body, fm),
		Body:  body,
	}
}

// Slug turns a title into a lowercase file-name-safe token, or "" when
// nothing usable remains.
func Slug(title string) string {
	s := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if len(s) > maxSlug {
		s = strings.TrimRight(s[:maxSlug], "-")
	}
	return s
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body.
func splitFrontmatter(text string) (map[string]any, string) {
	const delim = "---"
	trimmed := strings.TrimLeft(text, "\n\r")
	if !strings.HasPrefix(trimmed, delim) {
		return nil, text
	}

	rest := trimmed[len(delim):]
	idx := strings.Index(rest, "\n"+delim)
	if idx < 0 {
		return nil, text
	}

	var fm map[string]any
	if err := yaml.Unmarshal([]byte(rest[:idx]), &fm); err != nil {
		return nil, text
	}
	body := strings.TrimLeft(rest[idx+1+len(delim):], "\n\r")
	return fm, body
}

// extractTags collects the frontmatter "tags" list followed by inline #tags,
// without duplicates.
func extractTags(body string, fm map[string]any) []string {
	seen := make(map[string]struct{})
	out := []string{}
	add := func(t string) {
		t = strings.TrimSpace(t)
		if t == "" {
			return
		}
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	if raw, ok := fm["tags"].([]any); ok {
		for _, item := range raw {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	}
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}

// deriveTitle returns the frontmatter "title" if present, otherwise the first
// H1 heading, otherwise "".
func deriveTitle(fm map[string]any, body string) string {
	if s, ok := fm["title"].(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
