package graph

import "github.com/ColinToft/JogCoach/internal/provider"

// Weights multiplies an edge's length by a per class factor (lower is
// preferred). Crossings also pay a fixed penalty in metres.
type Weights struct {
	Factors         map[Class]float64
	CrossingPenalty float64
}

// WeightsFor derives edge weights from the surface preferences of a profile.
func WeightsFor(p provider.Profile) Weights {
	w := Weights{
		Factors: map[Class]float64{
			ClassOther:       1.2,
			ClassBusy:        1,
			ClassResidential: 1,
			ClassGreen:       1,
			ClassCrossing:    1,
			ClassSteps:       2,
		},
		CrossingPenalty: 20,
	}
	if p.AvoidBusyRoads {
		w.Factors[ClassBusy] = 3
		w.CrossingPenalty = 60
	}
	if p.PreferParks {
		w.Factors[ClassGreen] = 0.7
	}
	return w
}

// Cost is the weighted length of e.
func (w Weights) Cost(e Edge) float64 {
	factor, ok := w.Factors[e.Class]
	if !ok {
		factor = 1
	}
	cost := e.Distance * factor
	if e.Class == ClassCrossing {
		cost += w.CrossingPenalty
	}
	return cost
}
