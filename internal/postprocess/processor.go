package postprocess

import (
	"log/slog"

	"git.home.luguber.info/inful/docsplice/internal/config"
	"git.home.luguber.info/inful/docsplice/internal/logfields"
)

// Processor applies a fixed, ordered chain of rules.
type Processor struct {
	rules []Rule
}

// New builds a Processor. The chain is copied and cannot change afterwards.
func New(rules ...Rule) *Processor {
	chain := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r != nil {
			chain = append(chain, r)
		}
	}
	return &Processor{rules: chain}
}

// FromConfig builds the default chain: class injection first, then image
// paragraph stripping unless disabled.
func FromConfig(cfg config.PostProcessConfig) *Processor {
	rules := []Rule{NewClassInjector(cfg.ClassMap)}
	if !cfg.KeepImageParagraphs {
		rules = append(rules, ImageParagraphStripper{})
	}
	return New(rules...)
}

// With returns a new Processor with extra rules appended after the existing chain.
func (p *Processor) With(rules ...Rule) *Processor {
	return New(append(p.Rules(), rules...)...)
}

// Rules returns a copy of the chain in execution order.
func (p *Processor) Rules() []Rule {
	out := make([]Rule, len(p.rules))
	copy(out, p.rules)
	return out
}

// Process runs every rule in order, each consuming the previous rule's output.
func (p *Processor) Process(markup string) string {
	for _, r := range p.rules {
		next := r.Apply(markup)
		if next != markup {
			slog.Debug("Post-process rule rewrote markup", logfields.Rule(r.Name()))
		}
		markup = next
	}
	return markup
}
