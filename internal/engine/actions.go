package engine

import (
	"slices"

	"github.com/calebforth/ventureboard/internal/room"
)

// pickAsset takes an unconditionally-eligible face-up market asset (or falls
// back to the asset deck when the market offers none), then refills the
// market from the deck.
func (e *Engine) pickAsset(r *room.Room, seat room.SeatID, action Action) (*PrivateDelta, error) {
	s := r.Seats[seat]
	assets := r.Decks[room.DeckAssetsRound1]

	var eligible []string
	for _, id := range r.Market.Assets {
		if def, ok := e.cat.Assets[id]; ok && def.PickCondition == "" {
			eligible = append(eligible, id)
		}
	}

	var picked string
	switch {
	case action.CardID != "":
		if !slices.Contains(eligible, action.CardID) {
			return nil, ruleErr("ineligible-pick", "card %s is not an eligible market asset", action.CardID)
		}
		picked = action.CardID
	case len(eligible) > 0:
		// Default-selection rule: first eligible market asset.
		picked = eligible[0]
	default:
		// Nothing pickable face-up: draw blind from the deck instead.
		top, err := assets.DrawTop()
		if err != nil {
			return nil, ruleErr("market-exhausted", "no eligible market asset and the asset deck is empty")
		}
		picked = top
	}

	if i := slices.Index(r.Market.Assets, picked); i >= 0 {
		r.Market.Assets = slices.Delete(r.Market.Assets, i, i+1)
	}

	// Refill up to size regardless of eligibility of what comes off the deck.
	for len(r.Market.Assets) < room.AssetMarketSize && assets.Remaining() > 0 {
		top, err := assets.DrawTop()
		if err != nil {
			break
		}
		r.Market.Assets = append(r.Market.Assets, top)
	}

	s.HandSize++
	if limit := r.EffectiveHandLimit(); s.HandSize > limit {
		s.MustDiscard = true
		s.DiscardTarget = limit
	}

	delta := newDelta(seat)
	delta.AddedCardIDs = append(delta.AddedCardIDs, picked)
	return delta, nil
}

// startProject moves a face-up market project into the seat's tableau.
func (e *Engine) startProject(r *room.Room, seat room.SeatID, action Action) error {
	if action.ProjectID == "" {
		return ruleErr("missing-project", "START_PROJECT requires a project id")
	}
	i := slices.Index(r.Market.Projects, action.ProjectID)
	if i < 0 {
		return ruleErr("not-in-market", "project %s is not face-up in the market", action.ProjectID)
	}
	if _, ok := e.cat.Projects[action.ProjectID]; !ok {
		return ruleErr("unknown-project", "project %s has no catalog entry", action.ProjectID)
	}

	r.Market.Projects = slices.Delete(r.Market.Projects, i, i+1)

	s := r.Seats[seat]
	s.Projects = append(s.Projects, &room.ProjectInstance{
		ID:    action.ProjectID,
		Stage: room.StageNone,
	})
	s.ProjectsStartedThisRound++

	projects := r.Decks[room.DeckProjects]
	for len(r.Market.Projects) < room.ProjectMarketSize && projects.Remaining() > 0 {
		top, err := projects.DrawTop()
		if err != nil {
			break
		}
		r.Market.Projects = append(r.Market.Projects, top)
	}
	return nil
}

// allocateToProject commits hand cards to a project. A free action: the turn
// does not advance.
func (e *Engine) allocateToProject(r *room.Room, seat room.SeatID, action Action) (*PrivateDelta, error) {
	s := r.Seats[seat]

	if len(action.CardIDs) == 0 {
		return nil, ruleErr("no-cards", "allocation requires at least one card id")
	}
	seen := make(map[string]bool, len(action.CardIDs))
	for _, id := range action.CardIDs {
		if seen[id] {
			return nil, ruleErr("duplicate-card", "card %s listed twice", id)
		}
		seen[id] = true
	}
	if len(action.CardIDs) > s.HandSize {
		return nil, ruleErr("hand-overdraw", "allocating %d cards with hand size %d", len(action.CardIDs), s.HandSize)
	}
	if !isHex64(action.HandHash) {
		return nil, ruleErr("bad-hand-hash", "hand hash must be a 64-character hex string")
	}

	target, err := e.resolveAllocationTarget(s, action.ProjectID)
	if err != nil {
		return nil, err
	}
	def := e.cat.Projects[target.ID]

	for _, id := range action.CardIDs {
		asset, ok := e.cat.Assets[id]
		if !ok {
			return nil, ruleErr("unknown-asset", "card %s has no asset catalog entry", id)
		}
		target.Allocated.Budget += asset.Outcomes.Budget
		target.Allocated.Headcount += asset.Outcomes.Headcount
		target.Allocated.Tailwind += asset.Outcomes.Tailwind
		target.AllocatedCardIDs = append(target.AllocatedCardIDs, id)
	}
	target.Stage = stageFor(target.Allocated.Tailwind, def.MVReq, def.TFReq)

	s.HandSize -= len(action.CardIDs)
	s.LastHandHash = action.HandHash

	delta := newDelta(seat)
	delta.RemovedCardIDs = append(delta.RemovedCardIDs, action.CardIDs...)
	return delta, nil
}

// resolveAllocationTarget applies the default-selection rule: an explicit id
// must name an owned, unpaused, incomplete project; otherwise the first
// active project is taken, and zero candidates is an error.
func (e *Engine) resolveAllocationTarget(s *room.Seat, projectID string) (*room.ProjectInstance, error) {
	if projectID != "" {
		p := s.Project(projectID)
		if p == nil {
			return nil, ruleErr("not-owned", "project %s is not owned by this seat", projectID)
		}
		if p.Paused {
			return nil, ruleErr("project-paused", "project %s is paused", projectID)
		}
		if p.Stage == room.StageTF {
			return nil, ruleErr("project-complete", "project %s is already complete", projectID)
		}
		return p, nil
	}
	for _, p := range s.Projects {
		if p.Active() {
			return p, nil
		}
	}
	return nil, ruleErr("no-active-project", "seat has no active project to allocate to")
}

// stageFor recomputes a project stage from cumulative tailwind. TF requires
// crossing both thresholds cumulatively.
func stageFor(tailwind, mvReq, tfReq int) room.Stage {
	switch {
	case tailwind >= mvReq+tfReq:
		return room.StageTF
	case tailwind >= mvReq:
		return room.StageMV
	default:
		return room.StageNone
	}
}

// pauseProject shelves a project, refunding its allocated cards to the
// owner's hand.
func (e *Engine) pauseProject(r *room.Room, seat room.SeatID, action Action) (*PrivateDelta, error) {
	s := r.Seats[seat]

	var target *room.ProjectInstance
	if action.ProjectID != "" {
		target = s.Project(action.ProjectID)
		if target == nil {
			return nil, ruleErr("not-owned", "project %s is not owned by this seat", action.ProjectID)
		}
		if target.Paused {
			return nil, ruleErr("already-paused", "project %s is already paused", action.ProjectID)
		}
	} else {
		// Default-selection rule: first unpaused owned project.
		for _, p := range s.Projects {
			if !p.Paused {
				target = p
				break
			}
		}
		if target == nil {
			return nil, ruleErr("nothing-to-pause", "seat has no unpaused project")
		}
	}

	returned := slices.Clone(target.AllocatedCardIDs)

	target.Paused = true
	target.Allocated = room.AllocatedTotals{}
	target.AllocatedCardIDs = nil
	target.Stage = room.StageNone
	target.AbandonedPenaltyCount = 1
	target.RestartBurdenTailwind = restartBurden(e, target.ID)

	s.HandSize += len(returned)

	delta := newDelta(seat)
	delta.AddedCardIDs = append(delta.AddedCardIDs, returned...)
	return delta, nil
}

func restartBurden(e *Engine, projectID string) int {
	if def, ok := e.cat.Projects[projectID]; ok && def.RestartBurdenTailwind > 0 {
		return def.RestartBurdenTailwind
	}
	return 1
}

// discardAsset drops one hand card. A single discard pays down a round-end
// debt and hand-limit overflow at the same time.
func (e *Engine) discardAsset(r *room.Room, seat room.SeatID, action Action) (*PrivateDelta, error) {
	s := r.Seats[seat]

	if s.HandSize <= 0 {
		return nil, ruleErr("empty-hand", "cannot discard with an empty hand")
	}
	if action.CardID == "" {
		return nil, ruleErr("missing-card", "DISCARD_ASSET requires a card id")
	}

	s.HandSize--
	if debt := r.MustDiscardBySeat[seat]; debt > 0 {
		r.MustDiscardBySeat[seat] = debt - 1
	}

	// The revealed identity goes to the asset discard pile.
	r.Decks[room.DeckAssetsRound1].Discard(action.CardID)

	limit := s.DiscardTarget
	if limit <= 0 {
		limit = room.BaseHandLimit
	}
	if s.HandSize > limit {
		s.MustDiscard = true
		s.DiscardTarget = limit
	} else {
		s.MustDiscard = false
		s.DiscardTarget = 0
	}

	delta := newDelta(seat)
	delta.RemovedCardIDs = append(delta.RemovedCardIDs, action.CardID)
	return delta, nil
}
