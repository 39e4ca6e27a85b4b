// Package postprocess rewrites rendered markup before it is spliced into an output document.
//
// A Processor runs an ordered, fixed chain of Rules. Every rule is a pure string
// rewrite and must be idempotent: applying the whole chain to its own output
// returns the same markup. Watch mode re-runs the chain on every save, so a rule
// that keeps growing its output would corrupt documents over time.
package postprocess

// Rule is a single markup rewrite.
type Rule interface {
	Name() string
	Apply(markup string) string
}

// RuleFunc adapts a plain function to Rule.
type RuleFunc struct {
	name string
	fn   func(string) string
}

// NewRuleFunc names fn so it can appear in logs.
func NewRuleFunc(name string, fn func(string) string) RuleFunc {
	return RuleFunc{name: name, fn: fn}
}

func (r RuleFunc) Name() string { return r.name }

func (r RuleFunc) Apply(markup string) string {
	if r.fn == nil {
		return markup
	}
	return r.fn(markup)
}
