package loot

import "math/rand/v2"

// RandomSource yields uniformly distributed values in [0, 1).
type RandomSource interface {
	Float64() float64
}

type defaultRandomSource struct{}

func (defaultRandomSource) Float64() float64 {
	return rand.Float64()
}

// TotalWeight sums the non-negative weights of the contents.
func TotalWeight(contents []CaseContent) float64 {
	var total float64
	for _, content := range contents {
		if content.Weight > 0 {
			total += content.Weight
		}
	}
	return total
}

// Draw selects one content proportionally to its weight.
// A draw r in [0, W) walks the contents subtracting weights until r <= 0;
// floating point drift falls back to the last weighted content.
func Draw(contents []CaseContent, source RandomSource) (CaseContent, error) {
	if len(contents) == 0 {
		return CaseContent{}, ErrCaseEmpty
	}
	total := TotalWeight(contents)
	if total <= 0 {
		return CaseContent{}, ErrCaseMisconfigured
	}
	remaining := source.Float64() * total
	var last CaseContent
	for _, content := range contents {
		if content.Weight <= 0 {
			continue
		}
		last = content
		remaining -= content.Weight
		if remaining <= 0 {
			return content, nil
		}
	}
	return last, nil
}
