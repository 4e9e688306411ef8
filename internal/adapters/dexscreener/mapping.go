package dexscreener

import (
	"strconv"
	"time"

	"github.com/jortega/memetrader/internal/domain"
)

// mapPair normalizes one wire pair into a TokenObservation. Pairs without
// a usable price or liquidity figure are dropped (ok = false); the
// evaluator must never see them.
func mapPair(p pair, observedAt time.Time) (domain.TokenObservation, bool) {
	if p.PairAddress == "" || p.PriceUSD == "" || p.Liquidity == nil {
		return domain.TokenObservation{}, false
	}

	price, err := strconv.ParseFloat(p.PriceUSD, 64)
	if err != nil || price <= 0 {
		return domain.TokenObservation{}, false
	}

	var created time.Time
	if p.PairCreatedAt > 0 {
		created = time.UnixMilli(p.PairCreatedAt).UTC()
	}

	return domain.TokenObservation{
		Token:       p.PairAddress,
		Symbol:      p.BaseToken.Symbol,
		Price:       price,
		Volume24h:   p.Volume.H24,
		Liquidity:   p.Liquidity.USD,
		Change24h:   p.PriceChange.H24 / 100, // API reports percent
		PairCreated: created,
		ObservedAt:  observedAt,
	}, true
}
