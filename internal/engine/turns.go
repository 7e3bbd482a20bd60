package engine

import (
	"github.com/calebforth/ventureboard/internal/room"
)

// Macro-event ids that carry hardcoded modifier overrides on top of their
// declared ruleModifiers.
const (
	// MacroEventHandLimitSix forces the active hand limit down to 6.
	MacroEventHandLimitSix = "me-hiring-freeze"
	// MacroEventTailwindBonus grants a +1 tailwind pick bonus.
	MacroEventTailwindBonus = "me-cheap-capital"
)

const forcedHandLimit = 6

// endTurn handles END_TURN and ADVANCE_ROUND (explicitAdvance). Ownership
// and the discard gate were checked by Authorize.
func (e *Engine) endTurn(r *room.Room, explicitAdvance bool) error {
	// A boundary already reached and fully paid: this call completes it.
	if r.PendingRoundAdvance && !r.OutstandingDebt() {
		e.crossRoundBoundary(r)
		return nil
	}

	joined := r.JoinedSeats()

	boundary := explicitAdvance
	if !boundary {
		// END_TURN triggers a boundary when the shared project deck ran dry
		// or the round has seen two full cycles through all seats.
		if r.Decks[room.DeckProjects].Remaining() == 0 {
			boundary = true
		}
		if r.TurnCount+1 >= len(joined)*2 {
			boundary = true
		}
	}

	if !boundary {
		r.CurrentSeat = r.NextSeat(r.CurrentSeat)
		r.TurnCount++
		r.TurnNonce = e.nonce()
		return nil
	}

	// Snapshot debts once at the first boundary check and hold them while
	// they are paid down.
	starts := make(map[room.SeatID]int, len(joined))
	for _, id := range joined {
		starts[id] = r.Seats[id].ProjectsStartedThisRound
	}
	debts := ComputeMustDiscardBySeat(starts)

	owed := false
	for _, n := range debts {
		if n > 0 {
			owed = true
			break
		}
	}
	if owed {
		r.PendingRoundAdvance = true
		for id, n := range debts {
			r.MustDiscardBySeat[id] = n
		}
		return nil
	}

	e.crossRoundBoundary(r)
	return nil
}

// crossRoundBoundary either ends the game after the final round or resets
// state for the next one, revealing a macro event on rounds two and three.
func (e *Engine) crossRoundBoundary(r *room.Room) {
	for id := range r.MustDiscardBySeat {
		r.MustDiscardBySeat[id] = 0
	}
	r.PendingRoundAdvance = false

	if r.CurrentRound >= r.TotalRounds {
		r.FinalScoring = e.scoreGame(r)
		r.GameOver = true
		r.TurnNonce = e.nonce()
		return
	}

	r.CurrentRound = min(r.CurrentRound+1, r.TotalRounds)
	joined := r.JoinedSeats()
	r.CurrentSeat = joined[0]
	r.TurnCount = 0
	for _, s := range r.Seats {
		s.ProjectsStartedThisRound = 0
	}
	r.TurnNonce = e.nonce()

	if r.CurrentRound >= 2 {
		e.revealMacroEvent(r)
	}
}

// revealMacroEvent draws the next macro event and installs its modifiers.
// An exhausted event deck simply means no event this round.
func (e *Engine) revealMacroEvent(r *room.Room) {
	events := r.Decks[room.DeckMacroEvents]
	if events.Remaining() == 0 {
		return
	}
	id, err := events.DrawTop()
	if err != nil {
		return
	}

	r.MacroEvent = id
	mod := room.RoundModifier{Source: id}
	if def, ok := e.cat.MacroEvents[id]; ok {
		mod.Declared = append(mod.Declared, def.RuleModifiers...)
	}
	switch id {
	case MacroEventHandLimitSix:
		limit := forcedHandLimit
		mod.HandLimit = &limit
	case MacroEventTailwindBonus:
		mod.TailwindPickBonus = 1
	}
	r.RoundModifiers = append(r.RoundModifiers, mod)
}

// ComputeMustDiscardBySeat derives round-end discard debt from per-seat
// project starts: with a unique non-zero leader every other seat owes one
// discard; a tie or a dead round costs nobody anything.
func ComputeMustDiscardBySeat(startsBySeat map[room.SeatID]int) map[room.SeatID]int {
	debts := make(map[room.SeatID]int, len(startsBySeat))

	maxStarts, leaders := 0, 0
	for _, n := range startsBySeat {
		if n > maxStarts {
			maxStarts, leaders = n, 1
		} else if n == maxStarts {
			leaders++
		}
	}

	for id, n := range startsBySeat {
		if maxStarts > 0 && leaders == 1 && n < maxStarts {
			debts[id] = 1
		} else {
			debts[id] = 0
		}
	}
	return debts
}

func isHex64(s string) bool {
	if len(s) != 64 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
