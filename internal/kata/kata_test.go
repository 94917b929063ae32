package kata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleKata = `# FizzBuzz Kata

## Description
Print numbers from 1 to 100, replacing multiples of three with Fizz.

## Requirements
- Multiples of 3 print Fizz
- Multiples of 5 print Buzz
- Multiples of both print FizzBuzz

## Constraints
- No if statements

## Examples
fizzbuzz(3) == "Fizz"

fizzbuzz(5) == "Buzz"
`

func TestParse_FullDocument(t *testing.T) {
	t.Parallel()

	spec := Parse(sampleKata, "fizzbuzz.md")

	assert.Equal(t, "FizzBuzz Kata", spec.Title)
	assert.Contains(t, spec.Description, "Print numbers from 1 to 100")
	assert.Equal(t, []string{
		"Multiples of 3 print Fizz",
		"Multiples of 5 print Buzz",
		"Multiples of both print FizzBuzz",
	}, spec.Requirements)
	assert.Equal(t, []string{"No if statements"}, spec.Constraints)
	assert.Equal(t, []string{`fizzbuzz(3) == "Fizz"`, `fizzbuzz(5) == "Buzz"`}, spec.Examples)
	assert.Equal(t, "fizzbuzz.md", spec.SourcePath)
}

func TestParse_MissingSections(t *testing.T) {
	t.Parallel()

	spec := Parse("just some text without headings", "x.md")

	assert.Equal(t, "Untitled Kata", spec.Title)
	assert.Empty(t, spec.Description)
	assert.Empty(t, spec.Requirements)
	assert.Empty(t, spec.Constraints)
}

func TestLoad_ReadsFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "kata.md")
	require.NoError(t, os.WriteFile(path, []byte(sampleKata), 0o644))

	spec, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "FizzBuzz Kata", spec.Title)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.md"))
	assert.Error(t, err)
}

func TestProjectName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		title string
		want  string
	}{
		{"FizzBuzz Kata", "fizzbuzz_kata"},
		{"[Bowling](https://example.com/bowling) Game", "bowling_game"},
		{"  !!!  ", "kata"},
		{"String Calculator (v2)", "string_calculator_v2"},
	}
	for _, tc := range tests {
		spec := &Spec{Title: tc.title}
		assert.Equal(t, tc.want, spec.ProjectName(), "title %q", tc.title)
	}
}

func TestPromptText_IncludesRequirementsAndExamples(t *testing.T) {
	t.Parallel()

	spec := Parse(sampleKata, "")
	text := spec.PromptText()

	assert.Contains(t, text, "Print numbers from 1 to 100")
	assert.Contains(t, text, "- Multiples of 3 print Fizz")
	assert.Contains(t, text, `fizzbuzz(5) == "Buzz"`)
}
