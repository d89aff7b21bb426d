package matchmaking

import "context"

// PlayerSeed is one checked-in participant with their current sport rating.
type PlayerSeed struct {
	UserID int
	MMR    int
}

// Pairing is one proposed head-to-head. Player2ID is nil for a bye.
type Pairing struct {
	Player1ID int
	Player2ID *int
}

type GeneratePairingsParams struct {
	Seeds []PlayerSeed
}

// Pairer produces fair pairings from a pool of seeds. The pairing formula is
// a policy choice, so implementations stay swappable behind this interface.
type Pairer interface {
	GeneratePairings(ctx context.Context, params GeneratePairingsParams) ([]Pairing, error)

	GetName() string
}
