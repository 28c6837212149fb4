package request

// Rule is one step of an ordered fallback chain.
type Rule[C, V any] struct {
	Name string
	// When selects the rule. A nil When always matches.
	When func(C) bool
	// Value produces the resolved value of a matching rule.
	Value func(C) V
	// Fail, when set, turns a matching rule into a hard rejection.
	Fail func(C) error
}

// Chain is an ordered list of rules evaluated first-match-wins.
type Chain[C, V any] struct {
	Name  string
	Rules []Rule[C, V]
}

// Resolve evaluates the rules in order and returns the value of the first
// matching one together with its name. rule is empty when nothing matched.
func (c Chain[C, V]) Resolve(in C) (v V, rule string, err error) {
	for _, r := range c.Rules {
		if r.When != nil && !r.When(in) {
			continue
		}
		if r.Fail != nil {
			return v, r.Name, r.Fail(in)
		}
		if r.Value != nil {
			v = r.Value(in)
		}
		return v, r.Name, nil
	}
	return v, "", nil
}

// Then returns a copy of the chain with extra rules appended.
func (c Chain[C, V]) Then(rules ...Rule[C, V]) Chain[C, V] {
	out := Chain[C, V]{Name: c.Name, Rules: make([]Rule[C, V], 0, len(c.Rules)+len(rules))}
	out.Rules = append(out.Rules, c.Rules...)
	out.Rules = append(out.Rules, rules...)
	return out
}

func always[C, V any](v V) func(C) V {
	return func(C) V { return v }
}
