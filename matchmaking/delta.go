package matchmaking

// DeltaPolicy computes the zero-sum MMR exchange for a decided match. The
// exchanged amount grows when the lower-rated player wins and shrinks when
// the favourite does, bounded to [Min, Max]. Draws exchange nothing.
type DeltaPolicy struct {
	Base  int
	Min   int
	Max   int
	Scale int
}

// Exchange returns how many MMR points move from the loser to the winner.
func (p DeltaPolicy) Exchange(winnerMMR, loserMMR int) int {
	delta := p.Base
	if p.Scale > 0 {
		delta += (loserMMR - winnerMMR) / p.Scale
	}
	if delta < p.Min {
		return p.Min
	}
	if delta > p.Max {
		return p.Max
	}
	return delta
}
