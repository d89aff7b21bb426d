package matchmaking

import (
	"context"
	"errors"
	"sort"
)

// AdjacentPairer sorts seeds by MMR descending and pairs neighbours
// (1st vs 2nd, 3rd vs 4th, ...), which minimizes the rating gap inside each
// pair. Equal MMR ties break by ascending user id so repeated runs over the
// same pool are deterministic. An odd pool leaves the lowest-ranked seed as
// a bye.
type AdjacentPairer struct {
}

func NewAdjacentPairer() Pairer {
	return &AdjacentPairer{}
}

func (p *AdjacentPairer) GetName() string {
	return "AdjacentMMR"
}

func (p *AdjacentPairer) GeneratePairings(ctx context.Context, params GeneratePairingsParams) ([]Pairing, error) {
	seeds := params.Seeds
	if len(seeds) == 0 {
		return nil, errors.New("cannot generate pairings with zero seeds")
	}

	sorted := make([]PlayerSeed, len(seeds))
	copy(sorted, seeds)

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].MMR != sorted[j].MMR {
			return sorted[i].MMR > sorted[j].MMR
		}
		return sorted[i].UserID < sorted[j].UserID
	})

	pairings := make([]Pairing, 0, (len(sorted)+1)/2)
	for i := 0; i+1 < len(sorted); i += 2 {
		p2 := sorted[i+1].UserID
		pairings = append(pairings, Pairing{
			Player1ID: sorted[i].UserID,
			Player2ID: &p2,
		})
	}

	if len(sorted)%2 == 1 {
		pairings = append(pairings, Pairing{Player1ID: sorted[len(sorted)-1].UserID})
	}

	return pairings, nil
}
