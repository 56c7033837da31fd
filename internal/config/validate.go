package config

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var configSchema string

// ValidateSettings checks raw settings (viper.AllSettings) against the
// embedded config schema before they are decoded into Config. All
// violations are reported together, sorted by field path.
func ValidateSettings(settings map[string]any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(configSchema),
		gojsonschema.NewGoLoader(settings),
	)
	if err != nil {
		return fmt.Errorf("validate config schema: %w", err)
	}
	if result.Valid() {
		return nil
	}

	issues := make([]string, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		issues = append(issues, fmt.Sprintf("%s: %s", re.Field(), re.Description()))
	}
	sort.Strings(issues)

	return fmt.Errorf("config schema validation failed:\n  %s", strings.Join(issues, "\n  "))
}
