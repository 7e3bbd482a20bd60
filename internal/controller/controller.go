// Package controller wraps one full validate-apply-persist cycle in an
// optimistic compare-and-swap against the document store. A lost write race
// is surfaced to the caller with fresh state, never retried internally.
package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/calebforth/ventureboard/internal/auth"
	"github.com/calebforth/ventureboard/internal/catalog"
	"github.com/calebforth/ventureboard/internal/engine"
	"github.com/calebforth/ventureboard/internal/room"
	"github.com/calebforth/ventureboard/internal/roomid"
	"github.com/calebforth/ventureboard/internal/store"
)

// Request is one mutating action submission.
type Request struct {
	Seat              room.SeatID   `json:"seat"`
	Token             string        `json:"token"`
	ExpectedVersion   int           `json:"expectedVersion"`
	ExpectedTurnNonce string        `json:"expectedTurnNonce,omitempty"`
	Action            engine.Action `json:"action"`
}

// Status classifies an outcome.
type Status string

const (
	// StatusApplied means the action mutated the room and the write committed.
	StatusApplied Status = "applied"
	// StatusConflict means a concurrency precondition failed (stale version,
	// stale nonce, turn gate) or the conditional write lost a race. The
	// outcome carries the freshest known state.
	StatusConflict Status = "conflict"
	// StatusRejected means the request never qualified: bad shape, bad
	// credential, unknown room, or a domain-rule violation. Nothing changed.
	StatusRejected Status = "rejected"
)

// Class subdivides rejections for transport mapping.
type Class int

const (
	ClassNone Class = iota
	ClassShape
	ClassAuth
	ClassNotFound
	ClassDomain
)

// Outcome is the result of one submission.
type Outcome struct {
	Status Status
	// Room is the public projection: the new state when applied, the
	// freshest known state on conflict, nil on rejection.
	Room     *room.Room
	Delta    *engine.PrivateDelta
	NextEtag string
	Class    Class
	Err      error
}

// Controller coordinates the store, the auth check and the engine.
type Controller struct {
	store  store.Store
	cat    *catalog.Catalog
	engine *engine.Engine
	clock  quartz.Clock
	logger *log.Logger

	applyHook func(roomID string, projection *room.Room)
}

// Option customizes a Controller.
type Option func(*Controller)

// WithClock injects a clock; tests pass a quartz mock.
func WithClock(c quartz.Clock) Option {
	return func(ctl *Controller) { ctl.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(ctl *Controller) { ctl.logger = l }
}

// WithApplyHook registers a callback invoked after every committed mutation,
// with the room's new public projection. Used to fan out watch streams.
func WithApplyHook(f func(roomID string, projection *room.Room)) Option {
	return func(ctl *Controller) { ctl.applyHook = f }
}

// WithEngine overrides the default engine, letting tests inject a
// deterministic nonce source.
func WithEngine(eng *engine.Engine) Option {
	return func(ctl *Controller) { ctl.engine = eng }
}

// New creates a Controller over a store and card catalog.
func New(st store.Store, cat *catalog.Catalog, opts ...Option) *Controller {
	ctl := &Controller{
		store:  st,
		cat:    cat,
		clock:  quartz.NewReal(),
		logger: log.Default().WithPrefix("controller"),
	}
	for _, opt := range opts {
		opt(ctl)
	}
	if ctl.engine == nil {
		ctl.engine = engine.New(cat)
	}
	return ctl
}

func rejected(class Class, err error) Outcome {
	return Outcome{Status: StatusRejected, Class: class, Err: err}
}

// Submit runs the full cycle for one action request.
func (ctl *Controller) Submit(ctx context.Context, roomID string, req Request) Outcome {
	if err := validateShape(roomID, req); err != nil {
		return rejected(ClassShape, err)
	}

	doc, etag, err := ctl.store.Get(ctx, roomID)
	if errors.Is(err, store.ErrNotFound) {
		return rejected(ClassNotFound, fmt.Errorf("room %s not found", roomID))
	}
	if err != nil {
		return rejected(ClassNotFound, err)
	}

	r, err := decodeRoom(doc)
	if err != nil {
		return rejected(ClassNotFound, err)
	}

	seat, ok := r.Seats[req.Seat]
	if !ok {
		return rejected(ClassAuth, fmt.Errorf("seat %s not present in room", req.Seat))
	}
	if err := auth.Verify(req.Token, seat.TokenHash); err != nil {
		return rejected(ClassAuth, err)
	}

	if req.ExpectedVersion != r.Version {
		return ctl.conflict(r, etag, fmt.Errorf("stale version: expected %d, room is at %d", req.ExpectedVersion, r.Version))
	}
	if req.ExpectedTurnNonce != "" && req.ExpectedTurnNonce != r.TurnNonce {
		return ctl.conflict(r, etag, errors.New("stale turn nonce"))
	}

	next, delta, err := ctl.engine.Apply(r, req.Seat, req.Action, ctl.clock.Now())
	if err != nil {
		var gate *engine.GateError
		if errors.As(err, &gate) {
			return ctl.conflict(r, etag, err)
		}
		return rejected(ClassDomain, err)
	}

	return ctl.commit(ctx, roomID, next, delta, etag)
}

// ClaimDeal pops the seat's queued initial deal. Same auth and CAS contract
// as Submit, keyed on the current document rather than a client version.
func (ctl *Controller) ClaimDeal(ctx context.Context, roomID string, seatID room.SeatID, token string) Outcome {
	if roomID == "" || seatID == "" || token == "" {
		return rejected(ClassShape, errors.New("room id, seat and token are required"))
	}

	doc, etag, err := ctl.store.Get(ctx, roomID)
	if errors.Is(err, store.ErrNotFound) {
		return rejected(ClassNotFound, fmt.Errorf("room %s not found", roomID))
	}
	if err != nil {
		return rejected(ClassNotFound, err)
	}
	r, err := decodeRoom(doc)
	if err != nil {
		return rejected(ClassNotFound, err)
	}

	seat, ok := r.Seats[seatID]
	if !ok {
		return rejected(ClassAuth, fmt.Errorf("seat %s not present in room", seatID))
	}
	if err := auth.Verify(token, seat.TokenHash); err != nil {
		return rejected(ClassAuth, err)
	}

	next, delta, err := ctl.engine.ClaimDeal(r, seatID, ctl.clock.Now())
	if err != nil {
		var gate *engine.GateError
		if errors.As(err, &gate) {
			return ctl.conflict(r, etag, err)
		}
		return rejected(ClassDomain, err)
	}

	return ctl.commit(ctx, roomID, next, delta, etag)
}

// Fetch returns the public projection and etag without mutating anything.
func (ctl *Controller) Fetch(ctx context.Context, roomID string) (*room.Room, string, error) {
	doc, etag, err := ctl.store.Get(ctx, roomID)
	if err != nil {
		return nil, "", err
	}
	r, err := decodeRoom(doc)
	if err != nil {
		return nil, "", err
	}
	return r.PublicProjection(), etag, nil
}

// CreateParams configures room creation.
type CreateParams struct {
	ID   string
	Seed string
	// SeatTokens maps each seat to its plain token; the controller stores
	// only hashes.
	SeatTokens map[room.SeatID]string
}

// Create builds a new room, persists it (create-only) and returns its public
// projection and etag.
func (ctl *Controller) Create(ctx context.Context, params CreateParams) (*room.Room, string, error) {
	if params.ID == "" {
		params.ID = roomid.Generate()
	}
	if params.Seed == "" {
		params.Seed = engine.NewNonce()
	}

	seats := make(map[room.SeatID]room.SeatSetup, len(params.SeatTokens))
	for id, token := range params.SeatTokens {
		if token == "" {
			return nil, "", fmt.Errorf("seat %s has an empty token", id)
		}
		seats[id] = room.SeatSetup{TokenHash: auth.HashToken(token), Connected: true}
	}

	r, err := room.NewRoom(room.Config{
		ID:    params.ID,
		Seed:  params.Seed,
		Seats: seats,
		Nonce: engine.NewNonce(),
		Now:   ctl.clock.Now(),
	}, ctl.cat)
	if err != nil {
		return nil, "", err
	}

	doc, err := json.Marshal(r)
	if err != nil {
		return nil, "", fmt.Errorf("encode room: %w", err)
	}
	etag, err := ctl.store.Put(ctx, r.ID, doc, "")
	if err != nil {
		return nil, "", err
	}

	ctl.logger.Info("room created", "room", r.ID, "seats", len(seats))
	return r.PublicProjection(), etag, nil
}

func (ctl *Controller) conflict(r *room.Room, etag string, err error) Outcome {
	return Outcome{
		Status:   StatusConflict,
		Room:     r.PublicProjection(),
		NextEtag: etag,
		Err:      err,
	}
}

// commit attempts the single conditional write. On a lost race the latest
// state is fetched once and returned as a conflict.
func (ctl *Controller) commit(ctx context.Context, roomID string, next *room.Room, delta *engine.PrivateDelta, expectedEtag string) Outcome {
	doc, err := json.Marshal(next)
	if err != nil {
		return rejected(ClassDomain, fmt.Errorf("encode room: %w", err))
	}

	newEtag, err := ctl.store.Put(ctx, roomID, doc, expectedEtag)
	if errors.Is(err, store.ErrStale) {
		latestDoc, latestEtag, getErr := ctl.store.Get(ctx, roomID)
		if getErr != nil {
			return rejected(ClassNotFound, getErr)
		}
		latest, decErr := decodeRoom(latestDoc)
		if decErr != nil {
			return rejected(ClassNotFound, decErr)
		}
		ctl.logger.Debug("lost write race", "room", roomID, "version", latest.Version)
		return ctl.conflict(latest, latestEtag, errors.New("write conflict: another action committed first"))
	}
	if err != nil {
		return rejected(ClassNotFound, err)
	}

	projection := next.PublicProjection()
	if ctl.applyHook != nil {
		ctl.applyHook(roomID, projection)
	}

	return Outcome{
		Status:   StatusApplied,
		Room:     projection,
		Delta:    delta,
		NextEtag: newEtag,
	}
}

func decodeRoom(doc []byte) (*room.Room, error) {
	var r room.Room
	if err := json.Unmarshal(doc, &r); err != nil {
		return nil, fmt.Errorf("decode room document: %w", err)
	}
	return &r, nil
}

func validateShape(roomID string, req Request) error {
	if roomID == "" {
		return errors.New("room id is required")
	}
	if req.Seat == "" {
		return errors.New("seat is required")
	}
	if req.Token == "" {
		return errors.New("token is required")
	}
	if req.ExpectedVersion < 1 {
		return errors.New("expectedVersion must be a positive integer")
	}
	if !engine.Known(req.Action.Type) {
		return fmt.Errorf("unsupported action type %q", req.Action.Type)
	}
	switch req.Action.Type {
	case engine.ActionEndTurn, engine.ActionAdvanceRound:
		if req.ExpectedTurnNonce == "" {
			return errors.New("expectedTurnNonce is required for turn-affecting actions")
		}
	case engine.ActionStartProject:
		if req.Action.ProjectID == "" {
			return errors.New("projectId is required for START_PROJECT")
		}
	case engine.ActionAllocate:
		if len(req.Action.CardIDs) == 0 {
			return errors.New("cardIds is required for ALLOCATE_TO_PROJECT")
		}
		if req.Action.HandHash == "" {
			return errors.New("handHash is required for ALLOCATE_TO_PROJECT")
		}
	case engine.ActionDiscardAsset:
		if req.Action.CardID == "" {
			return errors.New("cardId is required for DISCARD_ASSET")
		}
	}
	return nil
}
