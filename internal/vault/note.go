package vault

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// frontmatter is the YAML header of a vault note. The note's kind is carried
// by its directory; the type field is written for Obsidian queries but the
// directory wins on import.
type frontmatter struct {
	ID       string    `yaml:"id"`
	Type     string    `yaml:"type,omitempty"`
	Title    string    `yaml:"title"`
	Tags     []string  `yaml:"tags,omitempty"`
	Status   string    `yaml:"status,omitempty"`
	Priority string    `yaml:"priority,omitempty"`
	Parent   string    `yaml:"parent,omitempty"`
	Source   string    `yaml:"source,omitempty"`
	Created  time.Time `yaml:"created,omitempty"`
	Updated  time.Time `yaml:"updated,omitempty"`
}

const frontmatterFence = "---"

var errNoFrontmatter = errors.New("note has no frontmatter block")

// renderNote serializes a frontmatter header and markdown body into the
// on-disk note format understood by Obsidian.
func renderNote(fm *frontmatter, body string) ([]byte, error) {
	head, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(frontmatterFence + "\n")
	buf.Write(head)
	buf.WriteString(frontmatterFence + "\n")
	if body != "" {
		buf.WriteString("\n")
		buf.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			buf.WriteString("\n")
		}
	}
	return buf.Bytes(), nil
}

// parseNote splits a note into its frontmatter header and markdown body.
func parseNote(data []byte) (*frontmatter, string, error) {
	text := string(data)
	if !strings.HasPrefix(text, frontmatterFence+"\n") {
		return nil, "", errNoFrontmatter
	}
	rest := text[len(frontmatterFence)+1:]

	end := strings.Index(rest, "\n"+frontmatterFence)
	if end < 0 {
		return nil, "", errNoFrontmatter
	}
	head := rest[:end+1]
	body := rest[end+1+len(frontmatterFence):]

	fm := &frontmatter{}
	if err := yaml.Unmarshal([]byte(head), fm); err != nil {
		return nil, "", fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	// Drop the fence's trailing newline, the blank separator line, and any
	// trailing newlines, so render and parse round-trip the body.
	body = strings.TrimPrefix(body, "\n")
	body = strings.TrimPrefix(body, "\n")
	body = strings.TrimRight(body, "\n")
	return fm, body, nil
}
