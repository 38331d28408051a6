package scoring

import "github.com/okian/wakepoint/internal/domain/model"

// modifiers is an append-only list of named multipliers. with returns a new
// value and never mutates the receiver's backing array.
type modifiers struct {
	items []model.Factor
}

func (m modifiers) with(name string, multiplier float64) modifiers {
	items := make([]model.Factor, len(m.items), len(m.items)+1)
	copy(items, m.items)
	return modifiers{items: append(items, model.Factor{Name: name, Multiplier: multiplier})}
}

func (m modifiers) fold(base float64) float64 {
	score := base
	for _, f := range m.items {
		score *= f.Multiplier
	}
	return score
}

func (m modifiers) factors() []model.Factor {
	out := make([]model.Factor, len(m.items))
	copy(out, m.items)
	return out
}
