package engine

import (
	"encoding/json"
	"log/slog"
	"os"
	"regexp"

	"github.com/leadflow-dev/leadflow/pkg/schema"
)

// envTokenRe matches {{UPPER_SNAKE}} environment placeholders. Lowercase
// tokens are step references and are handled by the ReferenceResolver.
var envTokenRe = regexp.MustCompile(`\{\{([A-Z_]+)\}\}`)

// EnvLookup resolves an environment variable name. Injectable for tests;
// nil means os.LookupEnv.
type EnvLookup func(name string) (string, bool)

// ConfigResolver substitutes environment placeholders in tool configs.
// Substitution happens over the serialized JSON of the tool list, so
// placeholders are replaced wherever they appear in the config tree.
// An unset variable substitutes to the literal sentinel "MISSING_<VAR>"
// so the pipeline keeps moving and agents can detect it and degrade.
type ConfigResolver struct {
	lookup EnvLookup
	logger *slog.Logger
}

// NewConfigResolver creates a ConfigResolver. lookup may be nil to use
// the process environment.
func NewConfigResolver(lookup EnvLookup, logger *slog.Logger) *ConfigResolver {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfigResolver{lookup: lookup, logger: logger}
}

// ResolveTools returns a copy of tools with every {{VAR}} placeholder
// substituted. Substitution is idempotent on placeholder-free input.
// The only failure mode is SUBSTITUTION_ERROR: the substituted text no
// longer parses as JSON (a value injected quotes or control characters).
func (r *ConfigResolver) ResolveTools(tools []schema.ToolSpec) ([]schema.ToolSpec, error) {
	if len(tools) == 0 {
		return tools, nil
	}

	raw, err := json.Marshal(tools)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeSubstitution,
			"tool config cannot be serialized").WithCause(err)
	}

	substituted := envTokenRe.ReplaceAllStringFunc(string(raw), func(token string) string {
		name := token[2 : len(token)-2]
		if v, ok := r.lookup(name); ok {
			return v
		}
		r.logger.Warn("environment variable not set, using sentinel",
			slog.String("var", name))
		return schema.MissingEnvPrefix + name
	})

	var out []schema.ToolSpec
	if err := json.Unmarshal([]byte(substituted), &out); err != nil {
		return nil, schema.NewError(schema.ErrCodeSubstitution,
			"substituted tool config is no longer valid JSON").WithCause(err)
	}
	return out, nil
}
