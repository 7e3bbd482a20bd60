// Package engine implements the deterministic state-transition rules for a
// room: per-action validation and mutation, turn and round progression,
// round-end discard-debt arbitration and final scoring. Apply works on a
// clone of the input room, so every action is all-or-nothing.
package engine

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/calebforth/ventureboard/internal/catalog"
	"github.com/calebforth/ventureboard/internal/room"
)

// ActionKind identifies one of the recognized action types.
type ActionKind string

const (
	ActionEndTurn      ActionKind = "END_TURN"
	ActionAdvanceRound ActionKind = "ADVANCE_ROUND"
	ActionPickAsset    ActionKind = "PICK_ASSET"
	ActionStartProject ActionKind = "START_PROJECT"
	ActionAllocate     ActionKind = "ALLOCATE_TO_PROJECT"
	ActionPauseProject ActionKind = "PAUSE_PROJECT"
	ActionDiscardAsset ActionKind = "DISCARD_ASSET"
)

// Known reports whether kind is a recognized action type.
func Known(kind ActionKind) bool {
	switch kind {
	case ActionEndTurn, ActionAdvanceRound, ActionPickAsset, ActionStartProject,
		ActionAllocate, ActionPauseProject, ActionDiscardAsset:
		return true
	}
	return false
}

// Action is one submitted game action. Fields beyond Type are kind-specific.
type Action struct {
	Type      ActionKind `json:"type"`
	CardID    string     `json:"cardId,omitempty"`
	ProjectID string     `json:"projectId,omitempty"`
	CardIDs   []string   `json:"cardIds,omitempty"`
	HandHash  string     `json:"handHash,omitempty"`
}

// PrivateDelta names the card ids that entered or left one seat's private
// hand, disclosed only to that seat.
type PrivateDelta struct {
	Seat           room.SeatID `json:"seat"`
	AddedCardIDs   []string    `json:"addedCardIds"`
	RemovedCardIDs []string    `json:"removedCardIds"`
}

func newDelta(seat room.SeatID) *PrivateDelta {
	return &PrivateDelta{Seat: seat, AddedCardIDs: []string{}, RemovedCardIDs: []string{}}
}

// Engine applies actions against room state. It is stateless apart from the
// catalog and safe for concurrent use.
type Engine struct {
	cat   *catalog.Catalog
	nonce func() string
}

// Option customizes an Engine.
type Option func(*Engine)

// WithNonceSource replaces the turn-nonce generator; tests inject a
// deterministic one.
func WithNonceSource(f func() string) Option {
	return func(e *Engine) { e.nonce = f }
}

// New creates an engine over the given catalog.
func New(cat *catalog.Catalog, opts ...Option) *Engine {
	e := &Engine{cat: cat, nonce: NewNonce}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewNonce returns a fresh opaque turn nonce.
func NewNonce() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("engine: nonce entropy unavailable: " + err.Error())
	}
	return hex.EncodeToString(b[:])
}

// Authorize checks turn ownership and the round-end discard gate for an
// action, without mutating anything. Violations come back as *GateError.
func (e *Engine) Authorize(r *room.Room, seat room.SeatID, kind ActionKind) error {
	if r.GameOver {
		return gateErr("game is over")
	}
	s, ok := r.Seats[seat]
	if !ok {
		return gateErr("seat %s not in room", seat)
	}
	personalDebt := s.MustDiscard || r.MustDiscardBySeat[seat] > 0

	if r.PendingRoundAdvance && r.OutstandingDebt() {
		// Round boundary reached with debts owed: only discards move the
		// game forward.
		if kind != ActionDiscardAsset {
			return gateErr("round-end discards outstanding, only DISCARD_ASSET accepted")
		}
		return nil
	}

	switch kind {
	case ActionDiscardAsset:
		if seat != r.CurrentSeat && !personalDebt {
			return gateErr("seat %s may only discard on its turn or while owing a discard", seat)
		}
	case ActionEndTurn:
		if seat != r.CurrentSeat {
			return gateErr("not seat %s's turn", seat)
		}
		if personalDebt {
			return gateErr("seat %s must discard before ending its turn", seat)
		}
	default:
		if seat != r.CurrentSeat {
			return gateErr("not seat %s's turn", seat)
		}
	}
	return nil
}

// Apply validates and applies one action for the acting seat, returning the
// next room state and any private hand delta. The input room is never
// mutated; on error the returned room is nil.
func (e *Engine) Apply(r *room.Room, seat room.SeatID, action Action, at time.Time) (*room.Room, *PrivateDelta, error) {
	if !Known(action.Type) {
		return nil, nil, ruleErr("unknown-action", "unsupported action type %q", action.Type)
	}
	if err := e.Authorize(r, seat, action.Type); err != nil {
		return nil, nil, err
	}

	next := r.Clone()
	var (
		delta *PrivateDelta
		err   error
	)

	switch action.Type {
	case ActionPickAsset:
		delta, err = e.pickAsset(next, seat, action)
	case ActionStartProject:
		err = e.startProject(next, seat, action)
	case ActionAllocate:
		delta, err = e.allocateToProject(next, seat, action)
	case ActionPauseProject:
		delta, err = e.pauseProject(next, seat, action)
	case ActionDiscardAsset:
		delta, err = e.discardAsset(next, seat, action)
	case ActionEndTurn:
		err = e.endTurn(next, false)
	case ActionAdvanceRound:
		err = e.endTurn(next, true)
	}
	if err != nil {
		return nil, nil, err
	}

	next.Version++
	next.AppendLog(string(action.Type), seat, at, "")
	return next, delta, nil
}

// ClaimDeal hands a seat its queued initial deal exactly once.
func (e *Engine) ClaimDeal(r *room.Room, seat room.SeatID, at time.Time) (*room.Room, *PrivateDelta, error) {
	if r.GameOver {
		return nil, nil, gateErr("game is over")
	}
	if _, ok := r.Seats[seat]; !ok {
		return nil, nil, gateErr("seat %s not in room", seat)
	}
	queued := r.DealQueue[seat]
	if len(queued) == 0 {
		return nil, nil, ruleErr("deal-claimed", "seat %s has no queued deal", seat)
	}

	next := r.Clone()
	s := next.Seats[seat]
	s.HandSize += len(queued)
	delta := newDelta(seat)
	delta.AddedCardIDs = append(delta.AddedCardIDs, next.DealQueue[seat]...)
	delete(next.DealQueue, seat)

	next.Version++
	next.AppendLog("DEAL_CLAIMED", seat, at, "")
	return next, delta, nil
}
