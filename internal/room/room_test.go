package room

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calebforth/ventureboard/internal/catalog"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load()
	require.NoError(t, err)
	return cat
}

func testConfig(seats ...SeatID) Config {
	cfg := Config{
		ID:    "room-test",
		Seed:  "seed-1",
		Seats: make(map[SeatID]SeatSetup),
		Nonce: "nonce-1",
		Now:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	for _, id := range seats {
		cfg.Seats[id] = SeatSetup{TokenHash: "hash-" + string(id), Connected: true}
	}
	return cfg
}

func TestNewRoom(t *testing.T) {
	t.Parallel()

	cat := testCatalog(t)
	r, err := NewRoom(testConfig(SeatA, SeatB, SeatC), cat)
	require.NoError(t, err)

	assert.Equal(t, 1, r.Version)
	assert.Equal(t, SeatA, r.CurrentSeat)
	assert.Equal(t, 1, r.CurrentRound)
	assert.Equal(t, TotalRounds, r.TotalRounds)
	assert.False(t, r.GameOver)
	assert.Equal(t, "nonce-1", r.TurnNonce)

	assert.Len(t, r.Market.Assets, AssetMarketSize)
	assert.Len(t, r.Market.Projects, ProjectMarketSize)
	for _, id := range []SeatID{SeatA, SeatB, SeatC} {
		assert.Len(t, r.DealQueue[id], InitialDealSize)
		assert.Equal(t, 0, r.Seats[id].HandSize, "deal is queued, not in hand")
		assert.Equal(t, 0, r.MustDiscardBySeat[id])
	}

	require.Len(t, r.Log, 1)
	assert.Equal(t, "ROOM_CREATED", r.Log[0].Type)
	assert.Equal(t, 1, r.Log[0].Version)
}

func TestNewRoomDeterministicSetup(t *testing.T) {
	t.Parallel()

	cat := testCatalog(t)
	a, err := NewRoom(testConfig(SeatA, SeatB), cat)
	require.NoError(t, err)
	b, err := NewRoom(testConfig(SeatA, SeatB), cat)
	require.NoError(t, err)

	assert.Equal(t, a.Market, b.Market)
	assert.Equal(t, a.DealQueue, b.DealQueue)
	assert.Equal(t, a.Decks[DeckAssetsRound1].DrawPile, b.Decks[DeckAssetsRound1].DrawPile)

	cfg := testConfig(SeatA, SeatB)
	cfg.Seed = "different-seed"
	c, err := NewRoom(cfg, cat)
	require.NoError(t, err)
	assert.NotEqual(t, a.Decks[DeckAssetsRound1].DrawPile, c.Decks[DeckAssetsRound1].DrawPile)
}

func TestNewRoomCardsLiveInExactlyOnePlace(t *testing.T) {
	t.Parallel()

	cat := testCatalog(t)
	r, err := NewRoom(testConfig(SeatA, SeatB, SeatC, SeatD), cat)
	require.NoError(t, err)

	seen := make(map[string]string)
	place := func(where string, ids []string) {
		for _, id := range ids {
			if prev, ok := seen[id]; ok {
				t.Errorf("card %s in both %s and %s", id, prev, where)
			}
			seen[id] = where
		}
	}

	place("assetDeck", r.Decks[DeckAssetsRound1].DrawPile)
	place("market", r.Market.Assets)
	for id, deal := range r.DealQueue {
		place("deal-"+string(id), deal)
	}

	assert.Len(t, seen, len(cat.AssetIDs), "every asset is somewhere")
}

func TestNewRoomValidation(t *testing.T) {
	t.Parallel()

	cat := testCatalog(t)

	_, err := NewRoom(testConfig(SeatA), cat)
	assert.Error(t, err, "one seat is not enough")

	cfg := testConfig(SeatA, SeatB)
	cfg.Seats["E"] = SeatSetup{TokenHash: "x"}
	_, err = NewRoom(cfg, cat)
	assert.Error(t, err, "unknown seat letter")

	cfg = testConfig(SeatA, SeatB)
	cfg.Seats[SeatB] = SeatSetup{Connected: true}
	_, err = NewRoom(cfg, cat)
	assert.Error(t, err, "missing credential")
}

func TestJoinedSeatsOrdering(t *testing.T) {
	t.Parallel()

	r := &Room{Seats: map[SeatID]*Seat{
		SeatA: {Connected: false},
		SeatB: {Connected: true},
		SeatD: {Connected: true},
	}}
	assert.Equal(t, []SeatID{SeatB, SeatD}, r.JoinedSeats())

	// Nobody connected falls back to all seats in canonical order.
	r = &Room{Seats: map[SeatID]*Seat{
		SeatC: {},
		SeatA: {},
	}}
	assert.Equal(t, []SeatID{SeatA, SeatC}, r.JoinedSeats())
}

func TestNextSeatWraps(t *testing.T) {
	t.Parallel()

	r := &Room{Seats: map[SeatID]*Seat{
		SeatA: {Connected: true},
		SeatB: {Connected: true},
		SeatC: {Connected: true},
	}}
	assert.Equal(t, SeatB, r.NextSeat(SeatA))
	assert.Equal(t, SeatA, r.NextSeat(SeatC))
}

func TestEffectiveHandLimit(t *testing.T) {
	t.Parallel()

	r := &Room{}
	assert.Equal(t, BaseHandLimit, r.EffectiveHandLimit())

	six := 6
	r.RoundModifiers = append(r.RoundModifiers, RoundModifier{Source: "ev", HandLimit: &six})
	assert.Equal(t, 6, r.EffectiveHandLimit())

	// Latest override wins.
	five := 5
	r.RoundModifiers = append(r.RoundModifiers, RoundModifier{Source: "ev2", HandLimit: &five})
	assert.Equal(t, 5, r.EffectiveHandLimit())
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()

	cat := testCatalog(t)
	r, err := NewRoom(testConfig(SeatA, SeatB), cat)
	require.NoError(t, err)
	r.Seats[SeatA].Projects = []*ProjectInstance{{ID: "project-mobile-app", Stage: StageNone}}

	c := r.Clone()
	c.Seats[SeatA].HandSize = 99
	c.Seats[SeatA].Projects[0].Allocated.Tailwind = 42
	c.Market.Assets[0] = "tampered"
	c.MustDiscardBySeat[SeatA] = 3
	if _, err := c.Decks[DeckAssetsRound1].DrawTop(); err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, 0, r.Seats[SeatA].HandSize)
	assert.Equal(t, 0, r.Seats[SeatA].Projects[0].Allocated.Tailwind)
	assert.NotEqual(t, "tampered", r.Market.Assets[0])
	assert.Equal(t, 0, r.MustDiscardBySeat[SeatA])
}

func TestPublicProjectionStripsSecrets(t *testing.T) {
	t.Parallel()

	cat := testCatalog(t)
	r, err := NewRoom(testConfig(SeatA, SeatB), cat)
	require.NoError(t, err)
	r.Seats[SeatA].LastHandHash = strings.Repeat("ab", 32)

	p := r.PublicProjection()
	assert.Nil(t, p.DealQueue)
	for id, s := range p.Seats {
		assert.Empty(t, s.TokenHash, "seat %s leaked its credential", id)
	}

	// Projection must not share mutable state with the source.
	p.Seats[SeatA].HandSize = 42
	assert.Equal(t, 0, r.Seats[SeatA].HandSize)

	// And the serialized form must not mention secrets either.
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "tokenHash")
	assert.NotContains(t, string(raw), "dealQueue")
}

func TestRoomJSONRoundTrip(t *testing.T) {
	t.Parallel()

	cat := testCatalog(t)
	r, err := NewRoom(testConfig(SeatA, SeatB, SeatC), cat)
	require.NoError(t, err)
	r.Seats[SeatB].Projects = []*ProjectInstance{{
		ID:               "project-marketplace",
		Allocated:        AllocatedTotals{Budget: -1, Headcount: 2, Tailwind: 5},
		AllocatedCardIDs: []string{"asset-press-feature"},
		Stage:            StageMV,
	}}

	raw, err := json.Marshal(r)
	require.NoError(t, err)

	var back Room
	require.NoError(t, json.Unmarshal(raw, &back))

	assert.Equal(t, r.Version, back.Version)
	assert.Equal(t, r.Market, back.Market)
	assert.Equal(t, r.DealQueue, back.DealQueue)
	assert.Equal(t, r.Seats[SeatB].Projects[0], back.Seats[SeatB].Projects[0])
	assert.Equal(t, r.Decks[DeckAssetsRound1].DrawPile, back.Decks[DeckAssetsRound1].DrawPile)
}
