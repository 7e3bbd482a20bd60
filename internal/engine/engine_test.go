package engine

import (
	"fmt"
	"time"

	"github.com/calebforth/ventureboard/internal/catalog"
	"github.com/calebforth/ventureboard/internal/deck"
	"github.com/calebforth/ventureboard/internal/room"
)

var testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// fixtureCatalog is a reduced, hand-built catalog so scenarios control every
// threshold and outcome exactly.
func fixtureCatalog() *catalog.Catalog {
	assets := []catalog.Asset{
		{ID: "asset-a1", Outcomes: catalog.Outcomes{Budget: 1}},
		{ID: "asset-a2", Outcomes: catalog.Outcomes{Headcount: 1}},
		{ID: "asset-a3", Outcomes: catalog.Outcomes{Tailwind: 1}},
		{ID: "asset-d1", Outcomes: catalog.Outcomes{Budget: 1}},
		{ID: "asset-d2", Outcomes: catalog.Outcomes{Tailwind: 1}},
		{ID: "asset-tw2", Outcomes: catalog.Outcomes{Tailwind: 2}},
		{ID: "asset-tw2b", Outcomes: catalog.Outcomes{Tailwind: 2}},
		{ID: "asset-tw3", Outcomes: catalog.Outcomes{Tailwind: 3}},
		{ID: "asset-neg", Outcomes: catalog.Outcomes{Budget: -2, Tailwind: 1}},
		{ID: "asset-cond", Outcomes: catalog.Outcomes{Budget: 4}, PickCondition: "requires-mv-project"},
		{ID: "asset-cond2", Outcomes: catalog.Outcomes{Budget: 4}, PickCondition: "requires-tf-project"},
	}
	projects := []catalog.Project{
		{ID: "project-p1", MVReq: 3, TFReq: 4, Rewards: catalog.Rewards{Growth: 3, Fuel: 2}},
		{ID: "project-p2", MVReq: 2, TFReq: 2, Rewards: catalog.Rewards{Growth: 1, Fuel: 2}, RestartBurdenTailwind: 2},
		{ID: "project-p3", MVReq: 2, TFReq: 3, Rewards: catalog.Rewards{Growth: 2, Fuel: 2}},
		{ID: "project-p4", MVReq: 2, TFReq: 3, Rewards: catalog.Rewards{Growth: 2, Fuel: 2}},
		{ID: "project-p5", MVReq: 2, TFReq: 3, Rewards: catalog.Rewards{Growth: 2, Fuel: 2}},
		{ID: "project-p6", MVReq: 2, TFReq: 3, Rewards: catalog.Rewards{Growth: 2, Fuel: 2}},
		{ID: "project-p7", MVReq: 2, TFReq: 3, Rewards: catalog.Rewards{Growth: 2, Fuel: 2}},
	}
	events := []catalog.MacroEvent{
		{ID: MacroEventHandLimitSix, RuleModifiers: []string{"hand-limit-6"}},
		{ID: MacroEventTailwindBonus, RuleModifiers: []string{"tailwind-pick-bonus-1"}},
		{ID: "me-plain", RuleModifiers: []string{"nothing-special"}},
	}

	cat := &catalog.Catalog{
		Assets:      make(map[string]catalog.Asset),
		Projects:    make(map[string]catalog.Project),
		Obstacles:   make(map[string]catalog.Obstacle),
		MacroEvents: make(map[string]catalog.MacroEvent),
	}
	for _, a := range assets {
		cat.Assets[a.ID] = a
		cat.AssetIDs = append(cat.AssetIDs, a.ID)
	}
	for _, p := range projects {
		cat.Projects[p.ID] = p
		cat.ProjectIDs = append(cat.ProjectIDs, p.ID)
	}
	for _, e := range events {
		cat.MacroEvents[e.ID] = e
		cat.MacroEventIDs = append(cat.MacroEventIDs, e.ID)
	}
	return cat
}

// fixtureRoom builds a mid-game round-1 room with the given seats joined,
// seat hands at 5 and a stocked market.
func fixtureRoom(seats ...room.SeatID) *room.Room {
	r := &room.Room{
		ID:                "room-1",
		Seed:              "seed",
		Version:           1,
		TurnNonce:         "nonce-0",
		CurrentSeat:       seats[0],
		CurrentRound:      1,
		TotalRounds:       room.TotalRounds,
		MustDiscardBySeat: make(map[room.SeatID]int),
		Market: room.Market{
			Assets:   []string{"asset-a1", "asset-a2", "asset-a3"},
			Projects: []string{"project-p1", "project-p2"},
		},
		Decks: map[string]*deck.Deck{
			room.DeckAssetsRound1: {DrawPile: []string{"asset-d1", "asset-d2"}},
			room.DeckProjects:     {DrawPile: []string{"project-p3", "project-p4", "project-p5", "project-p6", "project-p7"}},
			room.DeckMacroEvents:  {DrawPile: []string{MacroEventHandLimitSix, MacroEventTailwindBonus, "me-plain"}},
		},
		DealQueue: make(map[room.SeatID][]string),
		Seats:     make(map[room.SeatID]*room.Seat),
	}
	for _, id := range seats {
		r.Seats[id] = &room.Seat{Connected: true, TokenHash: "hash", HandSize: 5}
		r.MustDiscardBySeat[id] = 0
	}
	return r
}

// fixtureEngine numbers its nonces so tests can assert rotation.
func fixtureEngine() *Engine {
	n := 0
	return New(fixtureCatalog(), WithNonceSource(func() string {
		n++
		return fmt.Sprintf("nonce-%d", n)
	}))
}

const goodHash = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
