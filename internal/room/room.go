// Package room defines the persisted game-state aggregate: the room, its
// seats, projects, decks, markets and action log. The engine owns all
// mutation; the storage layer only sees the serialized form.
package room

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/calebforth/ventureboard/internal/catalog"
	"github.com/calebforth/ventureboard/internal/deck"
)

// SeatID is one of the up-to-four player slots.
type SeatID string

// Canonical seat letters, in rotation order.
const (
	SeatA SeatID = "A"
	SeatB SeatID = "B"
	SeatC SeatID = "C"
	SeatD SeatID = "D"
)

// seatOrder fixes rotation for the canonical letters.
var seatOrder = []SeatID{SeatA, SeatB, SeatC, SeatD}

// Deck names within Room.Decks.
const (
	DeckAssetsRound1 = "assetsRound1"
	DeckProjects     = "projects"
	DeckMacroEvents  = "macroEvents"
)

// Gameplay constants.
const (
	TotalRounds       = 3
	BaseHandLimit     = 7
	AssetMarketSize   = 3
	ProjectMarketSize = 5
	InitialDealSize   = 5
)

// Market holds the face-up cards any seat may act on.
type Market struct {
	Assets   []string `json:"assets"`
	Projects []string `json:"projects"`
}

// RoundModifier is an active rule override, tagged with the macro event (or
// other source) that installed it.
type RoundModifier struct {
	Source   string   `json:"source"`
	Declared []string `json:"declared,omitempty"`

	// HandLimit, when set, overrides the base hand limit for the round.
	HandLimit *int `json:"handLimit,omitempty"`
	// TailwindPickBonus is recorded for clients; the applier's accumulation
	// rules do not consume it.
	TailwindPickBonus int `json:"tailwindPickBonus,omitempty"`
}

// LogEntry is one line of the append-only action history.
type LogEntry struct {
	Type    string    `json:"type"`
	Seat    SeatID    `json:"seat,omitempty"`
	Version int       `json:"version"`
	At      time.Time `json:"at"`
	Note    string    `json:"note,omitempty"`
}

// SeatScore is the final-score breakdown for one seat.
type SeatScore struct {
	Growth    int `json:"growth"`
	Fuel      int `json:"fuel"`
	BaseScore int `json:"baseScore"`
	Penalties int `json:"penalties"`
	Final     int `json:"final"`
}

// FinalScoring is computed once at game end.
type FinalScoring struct {
	Scores  map[SeatID]SeatScore `json:"scores"`
	Winners []SeatID             `json:"winners"`
	Tie     bool                 `json:"tie"`
}

// Room is the root aggregate.
type Room struct {
	ID   string `json:"id"`
	Seed string `json:"seed"`

	Version   int    `json:"version"`
	TurnNonce string `json:"turnNonce"`

	CurrentSeat  SeatID `json:"currentSeat"`
	CurrentRound int    `json:"currentRound"`
	TotalRounds  int    `json:"totalRounds"`
	TurnCount    int    `json:"turnCount"`

	PendingRoundAdvance bool           `json:"pendingRoundAdvance"`
	MustDiscardBySeat   map[SeatID]int `json:"mustDiscardBySeat"`

	MacroEvent     string          `json:"macroEvent,omitempty"`
	RoundModifiers []RoundModifier `json:"roundModifiers,omitempty"`

	Market    Market                `json:"market"`
	Decks     map[string]*deck.Deck `json:"decks"`
	DealQueue map[SeatID][]string   `json:"dealQueue,omitempty"`
	Seats     map[SeatID]*Seat      `json:"seats"`

	GameOver     bool          `json:"gameOver"`
	FinalScoring *FinalScoring `json:"finalScoring,omitempty"`

	Log []LogEntry `json:"log"`
}

// SeatSetup configures one seat at room creation.
type SeatSetup struct {
	TokenHash string
	Connected bool
}

// Config is everything NewRoom needs.
type Config struct {
	ID    string
	Seed  string
	Seats map[SeatID]SeatSetup
	// Nonce supplies the initial turn nonce.
	Nonce string
	Now   time.Time
}

// NewRoom shuffles all decks from the room seed, queues each seat's initial
// deal, fills both markets and returns the room at version 1.
func NewRoom(cfg Config, cat *catalog.Catalog) (*Room, error) {
	if len(cfg.Seats) < 2 || len(cfg.Seats) > 4 {
		return nil, fmt.Errorf("room: need 2-4 seats, got %d", len(cfg.Seats))
	}
	for id, s := range cfg.Seats {
		if !slices.Contains(seatOrder, id) {
			return nil, fmt.Errorf("room: unknown seat %q", id)
		}
		if s.TokenHash == "" {
			return nil, fmt.Errorf("room: seat %s has no credential", id)
		}
	}

	r := &Room{
		ID:                cfg.ID,
		Seed:              cfg.Seed,
		Version:           1,
		TurnNonce:         cfg.Nonce,
		CurrentRound:      1,
		TotalRounds:       TotalRounds,
		MustDiscardBySeat: make(map[SeatID]int),
		Decks: map[string]*deck.Deck{
			DeckAssetsRound1: deck.New(cat.AssetIDs, deck.SubSeed(cfg.Seed, DeckAssetsRound1)),
			DeckProjects:     deck.New(cat.ProjectIDs, deck.SubSeed(cfg.Seed, DeckProjects)),
			DeckMacroEvents:  deck.New(cat.MacroEventIDs, deck.SubSeed(cfg.Seed, DeckMacroEvents)),
		},
		DealQueue: make(map[SeatID][]string),
		Seats:     make(map[SeatID]*Seat),
	}

	for id, s := range cfg.Seats {
		r.Seats[id] = &Seat{Connected: s.Connected, TokenHash: s.TokenHash}
		r.MustDiscardBySeat[id] = 0
	}

	assets := r.Decks[DeckAssetsRound1]
	for _, id := range r.JoinedSeats() {
		dealt, err := assets.Draw(InitialDealSize)
		if err != nil {
			return nil, fmt.Errorf("room: dealing seat %s: %w", id, err)
		}
		r.DealQueue[id] = dealt
	}

	marketAssets, err := assets.Draw(min(AssetMarketSize, assets.Remaining()))
	if err != nil {
		return nil, fmt.Errorf("room: filling asset market: %w", err)
	}
	r.Market.Assets = marketAssets

	projects := r.Decks[DeckProjects]
	marketProjects, err := projects.Draw(min(ProjectMarketSize, projects.Remaining()))
	if err != nil {
		return nil, fmt.Errorf("room: filling project market: %w", err)
	}
	r.Market.Projects = marketProjects

	joined := r.JoinedSeats()
	r.CurrentSeat = joined[0]

	r.Log = append(r.Log, LogEntry{
		Type:    "ROOM_CREATED",
		Version: r.Version,
		At:      cfg.Now,
		Note:    fmt.Sprintf("%d seats", len(cfg.Seats)),
	})
	return r, nil
}

// JoinedSeats returns connected seats in rotation order: the canonical
// letter sequence first, anything outside it appended lexicographically.
// With nobody connected it falls back to the same ordering over all seats.
func (r *Room) JoinedSeats() []SeatID {
	ordered := func(include func(*Seat) bool) []SeatID {
		var out []SeatID
		for _, id := range seatOrder {
			if s, ok := r.Seats[id]; ok && include(s) {
				out = append(out, id)
			}
		}
		var extra []SeatID
		for id, s := range r.Seats {
			if !slices.Contains(seatOrder, id) && include(s) {
				extra = append(extra, id)
			}
		}
		sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
		return append(out, extra...)
	}

	if joined := ordered(func(s *Seat) bool { return s.Connected }); len(joined) > 0 {
		return joined
	}
	return ordered(func(*Seat) bool { return true })
}

// NextSeat returns the seat after cur in joined order, wrapping.
func (r *Room) NextSeat(cur SeatID) SeatID {
	joined := r.JoinedSeats()
	for i, id := range joined {
		if id == cur {
			return joined[(i+1)%len(joined)]
		}
	}
	return joined[0]
}

// EffectiveHandLimit is the base limit unless a round modifier overrides it;
// the most recently installed override wins.
func (r *Room) EffectiveHandLimit() int {
	limit := BaseHandLimit
	for _, m := range r.RoundModifiers {
		if m.HandLimit != nil {
			limit = *m.HandLimit
		}
	}
	return limit
}

// OutstandingDebt reports whether any seat still owes a round-end discard.
func (r *Room) OutstandingDebt() bool {
	for _, n := range r.MustDiscardBySeat {
		if n > 0 {
			return true
		}
	}
	return false
}

// AppendLog records one applied action at the room's current version.
func (r *Room) AppendLog(entryType string, seat SeatID, at time.Time, note string) {
	r.Log = append(r.Log, LogEntry{
		Type:    entryType,
		Seat:    seat,
		Version: r.Version,
		At:      at,
		Note:    note,
	})
}

// Clone returns a deep copy. Action application mutates the clone so a
// failing branch leaves the original untouched.
func (r *Room) Clone() *Room {
	c := *r

	c.MustDiscardBySeat = make(map[SeatID]int, len(r.MustDiscardBySeat))
	for k, v := range r.MustDiscardBySeat {
		c.MustDiscardBySeat[k] = v
	}

	c.RoundModifiers = make([]RoundModifier, len(r.RoundModifiers))
	for i, m := range r.RoundModifiers {
		c.RoundModifiers[i] = m
		c.RoundModifiers[i].Declared = slices.Clone(m.Declared)
		if m.HandLimit != nil {
			limit := *m.HandLimit
			c.RoundModifiers[i].HandLimit = &limit
		}
	}

	c.Market.Assets = slices.Clone(r.Market.Assets)
	c.Market.Projects = slices.Clone(r.Market.Projects)

	c.Decks = make(map[string]*deck.Deck, len(r.Decks))
	for k, d := range r.Decks {
		c.Decks[k] = d.Clone()
	}

	c.DealQueue = make(map[SeatID][]string, len(r.DealQueue))
	for k, ids := range r.DealQueue {
		c.DealQueue[k] = slices.Clone(ids)
	}

	c.Seats = make(map[SeatID]*Seat, len(r.Seats))
	for k, s := range r.Seats {
		c.Seats[k] = s.Clone()
	}

	if r.FinalScoring != nil {
		fs := FinalScoring{
			Scores:  make(map[SeatID]SeatScore, len(r.FinalScoring.Scores)),
			Winners: slices.Clone(r.FinalScoring.Winners),
			Tie:     r.FinalScoring.Tie,
		}
		for k, v := range r.FinalScoring.Scores {
			fs.Scores[k] = v
		}
		c.FinalScoring = &fs
	}

	c.Log = slices.Clone(r.Log)
	return &c
}
