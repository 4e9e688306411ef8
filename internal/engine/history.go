package engine

import "github.com/jortega/memetrader/internal/domain"

// History keeps a bounded, time-ordered window of recent observations per
// token for the evaluator's momentum/stability features. Not safe for
// concurrent use; the loop owns it and updates it between dispatches.
type History struct {
	window  int
	samples map[string][]domain.TokenObservation
}

// NewHistory creates a history capped at window samples per token.
func NewHistory(window int) *History {
	if window <= 0 {
		window = 20
	}
	return &History{
		window:  window,
		samples: make(map[string][]domain.TokenObservation),
	}
}

// Add appends an observation, evicting the oldest sample past the cap.
func (h *History) Add(obs domain.TokenObservation) {
	s := append(h.samples[obs.Token], obs)
	if len(s) > h.window {
		s = s[len(s)-h.window:]
	}
	h.samples[obs.Token] = s
}

// Recent returns a copy of the stored window for the token, oldest first.
func (h *History) Recent(token string) []domain.TokenObservation {
	s := h.samples[token]
	out := make([]domain.TokenObservation, len(s))
	copy(out, s)
	return out
}

// Prices returns the recent price series for the token, oldest first.
func (h *History) Prices(token string) []float64 {
	s := h.samples[token]
	prices := make([]float64, len(s))
	for i, obs := range s {
		prices[i] = obs.Price
	}
	return prices
}

// Prune drops tokens absent from the active set, unless a position is
// still held in them. Keeps memory bounded when the candidate set churns.
func (h *History) Prune(active map[string]bool, held map[string]domain.Position) {
	for token := range h.samples {
		if active[token] {
			continue
		}
		if _, ok := held[token]; ok {
			continue
		}
		delete(h.samples, token)
	}
}
