package validation

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	goskema "github.com/reoring/goskema"
	"github.com/reoring/goskema/dsl"
)

// Rule is a declarative per-field constraint set, typically bound from a
// definition file.
type Rule struct {
	Required  bool   `json:"required,omitempty" yaml:"required,omitempty" toml:"required"`
	Contains  string `json:"contains,omitempty" yaml:"contains,omitempty" toml:"contains"`
	Pattern   string `json:"pattern,omitempty" yaml:"pattern,omitempty" toml:"pattern"`
	MinLength int    `json:"minLength,omitempty" yaml:"minLength,omitempty" toml:"minLength"`
	MaxLength int    `json:"maxLength,omitempty" yaml:"maxLength,omitempty" toml:"maxLength"`
	Message   string `json:"message,omitempty" yaml:"message,omitempty" toml:"message"`
}

// Rules maps field names (dotted paths allowed) to their constraints.
type Rules map[string]Rule

type compiledRule struct {
	name     string
	path     []string
	rule     Rule
	patterns *regexp.Regexp
}

type rulesSchema struct {
	rules []compiledRule
}

// Compile turns the rule set into a Schema. Patterns are compiled up front so
// a bad expression fails here rather than during navigation.
func (r Rules) Compile() (Schema, error) {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)

	compiled := make([]compiledRule, 0, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return nil, fmt.Errorf("validation: rule with empty field name")
		}
		rule := r[name]
		entry := compiledRule{name: trimmed, path: strings.Split(trimmed, "."), rule: rule}
		if rule.Pattern != "" {
			re, err := regexp.Compile(rule.Pattern)
			if err != nil {
				return nil, fmt.Errorf("validation: field %q pattern: %w", trimmed, err)
			}
			entry.patterns = re
		}
		compiled = append(compiled, entry)
	}
	return rulesSchema{rules: compiled}, nil
}

// MustCompile is Compile that panics on error, for package-level schemas.
func (r Rules) MustCompile() Schema {
	schema, err := r.Compile()
	if err != nil {
		panic(err)
	}
	return schema
}

func (s rulesSchema) SafeParse(ctx context.Context, values map[string]any) (Result, error) {
	if values == nil {
		values = map[string]any{}
	}
	data, err := dsl.MapAny().Parse(ctx, values)
	if err != nil {
		issues, ok := goskema.AsIssues(err)
		if !ok {
			return Result{}, err
		}
		return Failure(convertIssues(issues)...), nil
	}

	var issues goskema.Issues
	for _, entry := range s.rules {
		value, _ := lookup(data, entry.path)
		pointer := "/" + strings.Join(entry.path, "/")
		if isEmpty(value) {
			if entry.rule.Required {
				issues = goskema.AppendIssues(issues, goskema.Issue{
					Path:    pointer,
					Code:    goskema.CodeRequired,
					Message: entry.message("is required"),
				})
			}
			continue
		}

		text := fmt.Sprint(value)
		switch {
		case entry.rule.Contains != "" && !strings.Contains(text, entry.rule.Contains):
			issues = goskema.AppendIssues(issues, goskema.Issue{
				Path:    pointer,
				Code:    goskema.CodeInvalidFormat,
				Message: entry.message(fmt.Sprintf("must contain %q", entry.rule.Contains)),
			})
		case entry.rule.MinLength > 0 && utf8.RuneCountInString(text) < entry.rule.MinLength:
			issues = goskema.AppendIssues(issues, goskema.Issue{
				Path:    pointer,
				Code:    goskema.CodeTooShort,
				Message: entry.message(fmt.Sprintf("must be at least %d characters", entry.rule.MinLength)),
			})
		case entry.rule.MaxLength > 0 && utf8.RuneCountInString(text) > entry.rule.MaxLength:
			issues = goskema.AppendIssues(issues, goskema.Issue{
				Path:    pointer,
				Code:    goskema.CodeTooLong,
				Message: entry.message(fmt.Sprintf("must be at most %d characters", entry.rule.MaxLength)),
			})
		case entry.patterns != nil && !entry.patterns.MatchString(text):
			issues = goskema.AppendIssues(issues, goskema.Issue{
				Path:    pointer,
				Code:    goskema.CodePattern,
				Message: entry.message("has an invalid format"),
			})
		}
	}

	if len(issues) > 0 {
		return Failure(convertIssues(issues)...), nil
	}
	return Success(data), nil
}

func (c compiledRule) message(fallback string) string {
	if msg := strings.TrimSpace(c.rule.Message); msg != "" {
		return msg
	}
	return c.name + " " + fallback
}

func lookup(values map[string]any, path []string) (any, bool) {
	var current any = values
	for _, segment := range path {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}
