package simulator

import (
	"github.com/splax/synthteams/internal/choice"
	"github.com/splax/synthteams/internal/domain"
)

const (
	minFTEReduction   = 1
	maxFTEReduction   = 5
	minSavingsBaseK   = 45
	maxSavingsBaseK   = 95
	savingsRoundingTo = 1000
)

// generateStats draws an FTE reduction in [-5,-1] and scales a per-FTE base
// salary by its magnitude. Savings are always positive.
func generateStats(c choice.Chooser) domain.Stats {
	reduction := minFTEReduction + c.IntN(maxFTEReduction-minFTEReduction+1)
	base := (minSavingsBaseK + c.IntN(maxSavingsBaseK-minSavingsBaseK+1)) * savingsRoundingTo
	return domain.Stats{
		FTEDelta:       -reduction,
		SavingsPerYear: base * reduction,
	}
}
