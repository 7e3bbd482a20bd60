// Package deck provides deterministic shuffling and draw/discard piles over
// ordered card id sequences. Shuffles are a pure function of (ids, seed) so
// that room setup is reproducible for tests and audits.
package deck

import (
	"errors"
	"fmt"
	"slices"
)

// ErrExhausted is returned when a draw asks for more cards than remain.
var ErrExhausted = errors.New("deck: draw pile exhausted")

// Deck is a named pair of ordered piles. Cards move between piles (or out to
// hands and markets); the deck itself never invents or loses ids.
type Deck struct {
	DrawPile    []string `json:"drawPile"`
	DiscardPile []string `json:"discardPile"`
}

// New builds a deck whose draw pile is the seeded shuffle of ids.
func New(ids []string, seed string) *Deck {
	return &Deck{DrawPile: Shuffle(ids, seed)}
}

// SubSeed derives a per-deck seed so different decks shuffle independently
// from one room seed.
func SubSeed(roomSeed, deckName string) string {
	return roomSeed + ":" + deckName
}

// Draw removes the first n ids from the draw pile and returns them in order.
// Callers that can accept a partial draw must check Remaining first.
func (d *Deck) Draw(n int) ([]string, error) {
	if n < 0 {
		return nil, fmt.Errorf("deck: invalid draw count %d", n)
	}
	if n > len(d.DrawPile) {
		return nil, fmt.Errorf("%w: want %d, have %d", ErrExhausted, n, len(d.DrawPile))
	}
	drawn := slices.Clone(d.DrawPile[:n])
	d.DrawPile = d.DrawPile[n:]
	return drawn, nil
}

// DrawTop removes exactly one card.
func (d *Deck) DrawTop() (string, error) {
	drawn, err := d.Draw(1)
	if err != nil {
		return "", err
	}
	return drawn[0], nil
}

// Discard appends ids to the discard pile, preserving order.
func (d *Deck) Discard(ids ...string) {
	d.DiscardPile = append(d.DiscardPile, ids...)
}

// Remaining reports how many cards are left to draw.
func (d *Deck) Remaining() int {
	return len(d.DrawPile)
}

// Clone returns an independent deep copy.
func (d *Deck) Clone() *Deck {
	return &Deck{
		DrawPile:    slices.Clone(d.DrawPile),
		DiscardPile: slices.Clone(d.DiscardPile),
	}
}

// Shuffle returns a Fisher-Yates permutation of ids driven by a PRNG seeded
// from the seed string. The input slice is not modified.
func Shuffle(ids []string, seed string) []string {
	out := slices.Clone(ids)
	r := newRNG(seed)
	for i := len(out) - 1; i > 0; i-- {
		j := int(r.next() % uint64(i+1))
		out[i], out[j] = out[j], out[i]
	}
	return out
}
