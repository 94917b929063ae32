package config

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON string

// ValidateSettings checks the merged settings map against the embedded JSON
// schema before it is decoded into Config, so typos and out-of-range values
// in a config file fail with field names instead of a decode error. All
// violations are reported in one error, sorted for stable output.
func ValidateSettings(settings map[string]any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaJSON),
		gojsonschema.NewGoLoader(settings),
	)
	if err != nil {
		return fmt.Errorf("load config schema: %w", err)
	}
	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		violations = append(violations, verr.String())
	}
	sort.Strings(violations)

	return fmt.Errorf("invalid settings: %s", strings.Join(violations, "; "))
}
