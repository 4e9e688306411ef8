package ports

import (
	"context"

	"github.com/jortega/memetrader/internal/domain"
)

// MarketProvider fetches the current candidate token observations.
type MarketProvider interface {
	// FetchObservations returns one normalized observation per candidate
	// pair. May fail transiently; the loop treats a failure as an empty
	// tick.
	FetchObservations(ctx context.Context) ([]domain.TokenObservation, error)

	// FetchTokens returns observations for specific pair addresses. The
	// loop uses it to keep held positions priced after they fall out of
	// the candidate set.
	FetchTokens(ctx context.Context, tokens []string) ([]domain.TokenObservation, error)
}
