// Package kata parses kata specification files into structured form.
package kata

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Spec is a parsed kata specification. It is read once at session start and
// never mutated afterwards.
type Spec struct {
	Title        string
	Description  string
	Requirements []string
	Constraints  []string
	Examples     []string
	SourcePath   string
}

var (
	titleRe       = regexp.MustCompile(`(?m)^# (.+)$`)
	descriptionRe = regexp.MustCompile(`(?s)## Description\s*\n(.*?)(\n## |\z)`)
	requirementRe = regexp.MustCompile(`(?s)## Requirements\s*\n(.*?)(\n## |\z)`)
	constraintRe  = regexp.MustCompile(`(?s)## Constraints\s*\n(.*?)(\n## |\z)`)
	exampleRe     = regexp.MustCompile(`(?s)## Examples\s*\n(.*?)(\n## |\z)`)

	markdownLinkRe = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	nonSlugRe      = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)
)

// Load reads and parses a kata markdown file.
//
// Expected shape:
//
//	# Title
//	## Description
//	## Requirements (bullet list)
//	## Constraints (optional bullet list)
//	## Examples (optional, blank-line separated)
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read kata file: %w", err)
	}
	return Parse(string(data), path), nil
}

// Parse parses kata markdown content. Missing sections yield empty fields,
// never errors; a kata without a title is still usable.
func Parse(content, sourcePath string) *Spec {
	spec := &Spec{
		Title:      "Untitled Kata",
		SourcePath: sourcePath,
	}
	if m := titleRe.FindStringSubmatch(content); m != nil {
		spec.Title = strings.TrimSpace(m[1])
	}
	if m := descriptionRe.FindStringSubmatch(content); m != nil {
		spec.Description = strings.TrimSpace(m[1])
	}
	if m := requirementRe.FindStringSubmatch(content); m != nil {
		spec.Requirements = bullets(m[1])
	}
	if m := constraintRe.FindStringSubmatch(content); m != nil {
		spec.Constraints = bullets(m[1])
	}
	if m := exampleRe.FindStringSubmatch(content); m != nil {
		for _, block := range regexp.MustCompile(`\n\n+`).Split(strings.TrimSpace(m[1]), -1) {
			if block = strings.TrimSpace(block); block != "" {
				spec.Examples = append(spec.Examples, block)
			}
		}
	}
	return spec
}

// ProjectName derives a file-system safe project name from the kata title.
// Markdown links are reduced to their text, everything outside
// [a-zA-Z0-9_-] collapses to underscores.
func (s *Spec) ProjectName() string {
	name := markdownLinkRe.ReplaceAllString(s.Title, "$1")
	name = nonSlugRe.ReplaceAllString(strings.ToLower(name), "_")
	name = strings.Trim(name, "_")
	if name == "" {
		name = "kata"
	}
	return name
}

// PromptText renders the spec as the kata section of an agent prompt.
func (s *Spec) PromptText() string {
	var b strings.Builder
	b.WriteString(s.Description)
	if len(s.Requirements) > 0 {
		b.WriteString("\n\nRequirements:\n")
		for _, r := range s.Requirements {
			b.WriteString("- " + r + "\n")
		}
	}
	if len(s.Examples) > 0 {
		b.WriteString("\nExamples:\n")
		for _, e := range s.Examples {
			b.WriteString(e + "\n")
		}
	}
	return strings.TrimSpace(b.String())
}

func bullets(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "-") {
			out = append(out, strings.TrimSpace(strings.TrimPrefix(line, "-")))
		}
	}
	return out
}
