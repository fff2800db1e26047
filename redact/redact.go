// Package redact rewrites text through ordered literal/regex replacement
// rules before it leaves the API.
package redact

import (
	"log/slog"
	"regexp"

	"privascope/store"
)

// Engine applies privacy rules. Rule application is sequential: each rule
// sees the output of the previous one, so configured order is semantically
// significant.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates a redaction engine.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{logger: logger}
}

// Apply runs every active rule of every rule set, in set order then rule
// order, over text. A rule that fails to compile is logged and skipped; it
// never aborts the chain.
func (e *Engine) Apply(text string, ruleSets [][]*store.Rule) string {
	for _, rules := range ruleSets {
		for _, rule := range rules {
			if !rule.IsActive {
				continue
			}
			re, err := compileRule(rule)
			if err != nil {
				e.logger.Warn("skipping malformed redaction rule",
					"rule", rule.ID,
					"pattern", rule.Pattern,
					"error", err,
				)
				continue
			}
			text = re.ReplaceAllString(text, rule.Replacement)
		}
	}
	return text
}

// compileRule builds the case-insensitive matcher for a rule. Literal
// patterns have their regex metacharacters escaped so they match verbatim.
func compileRule(rule *store.Rule) (*regexp.Regexp, error) {
	pattern := rule.Pattern
	if rule.Type == store.RuleLiteral {
		pattern = regexp.QuoteMeta(pattern)
	}
	return regexp.Compile("(?i)" + pattern)
}

// RuleSource yields a profile's rules in stored sequence order.
type RuleSource interface {
	GetRules(profileID string) ([]*store.Rule, error)
}

// ApplyProfiles flattens the named profiles' rules, in profile order then
// rule order, and runs them through the sequential pipeline. A profile whose
// rules cannot be loaded is logged and skipped.
func (e *Engine) ApplyProfiles(text string, src RuleSource, profileIDs []string) string {
	ruleSets := make([][]*store.Rule, 0, len(profileIDs))
	for _, id := range profileIDs {
		rules, err := src.GetRules(id)
		if err != nil {
			e.logger.Warn("skipping unloadable profile", "profile", id, "error", err)
			continue
		}
		ruleSets = append(ruleSets, rules)
	}
	return e.Apply(text, ruleSets)
}
