package ingest

import (
	"regexp"
	"strings"
)

// Document is a textbook chapter read from an MDX source file.
type Document struct {
	ID          string
	Title       string
	URL         string
	Frontmatter map[string]string
	Body        string
}

// Section is a heading-delimited subdivision of a chapter body.
type Section struct {
	Title string
	Level int
	Lines []string
}

// Content joins the section's lines back into a single block.
func (s Section) Content() string {
	return strings.Join(s.Lines, "\n")
}

var headingRe = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

// ParseFrontmatter splits a leading ----delimited block off the raw document
// and parses it as flat key: value lines with surrounding quotes stripped.
// Documents without frontmatter come back with an empty map and the body
// unchanged.
func ParseFrontmatter(raw string) (map[string]string, string) {
	meta := map[string]string{}
	if !strings.HasPrefix(raw, "---") {
		return meta, raw
	}
	end := strings.Index(raw[3:], "---")
	if end == -1 {
		return meta, raw
	}
	end += 3
	block := strings.TrimSpace(raw[3:end])
	body := strings.TrimSpace(raw[end+3:])

	for _, line := range strings.Split(block, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"`)
		value = strings.Trim(value, `'`)
		meta[key] = value
	}
	return meta, body
}

// ExtractSections scans the body line by line and splits it on markdown
// headings. Content before the first heading lands in an implicit
// "Introduction" section; a trailing section without a terminating heading is
// still emitted when it has content.
func ExtractSections(body string) []Section {
	var sections []Section
	current := Section{Title: "Introduction", Level: 1}

	for _, line := range strings.Split(body, "\n") {
		if m := headingRe.FindStringSubmatch(line); m != nil {
			if len(current.Lines) > 0 {
				sections = append(sections, current)
			}
			current = Section{
				Title: strings.TrimSpace(m[2]),
				Level: len(m[1]),
			}
			continue
		}
		current.Lines = append(current.Lines, line)
	}
	if len(current.Lines) > 0 {
		sections = append(sections, current)
	}
	return sections
}
