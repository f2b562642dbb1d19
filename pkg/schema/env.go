package schema

import "strings"

// MissingEnvPrefix marks a tool config value whose environment variable
// was unset at substitution time. The sentinel is an ordinary string:
// it flows through the pipeline and agents that see it are expected to
// degrade (mock data, template fallback) rather than fail.
const MissingEnvPrefix = "MISSING_"

// IsMissingEnv reports whether a config value is an unset-variable sentinel.
func IsMissingEnv(value string) bool {
	return strings.HasPrefix(value, MissingEnvPrefix)
}
