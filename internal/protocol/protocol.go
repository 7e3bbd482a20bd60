// Package protocol defines the wire shapes of the HTTP API and validates
// incoming action requests against an embedded JSON Schema before they reach
// the controller.
package protocol

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/calebforth/ventureboard/internal/engine"
	"github.com/calebforth/ventureboard/internal/room"
)

//go:embed schemas/action_request.json
var actionRequestSchema string

var (
	compileOnce   sync.Once
	actionSchema  *jsonschema.Schema
	compileFailed error
)

// ActionRequestSchema returns the compiled action-request schema.
func ActionRequestSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		actionSchema, compileFailed = jsonschema.CompileString("action_request.json", actionRequestSchema)
	})
	return actionSchema, compileFailed
}

// ValidateActionRequest checks a raw request body against the schema.
func ValidateActionRequest(raw []byte) error {
	schema, err := ActionRequestSchema()
	if err != nil {
		return fmt.Errorf("protocol: schema unavailable: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("protocol: invalid JSON: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("protocol: %w", err)
	}
	return nil
}

// SuccessResponse is returned for an applied action.
type SuccessResponse struct {
	Room         *room.Room           `json:"room"`
	PrivateDelta *engine.PrivateDelta `json:"privateDelta"`
	NextEtag     string               `json:"nextEtag,omitempty"`
}

// ConflictResponse carries the freshest known state so the client can
// resynchronize without a second round trip.
type ConflictResponse struct {
	Error       string     `json:"error"`
	LatestState *room.Room `json:"latestState,omitempty"`
}

// ErrorResponse is returned for shape, auth and domain rejections.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CreateRoomRequest creates a room with the given seat tokens.
type CreateRoomRequest struct {
	Seed       string                 `json:"seed,omitempty"`
	SeatTokens map[room.SeatID]string `json:"seatTokens"`
}

// CreateRoomResponse returns the new room.
type CreateRoomResponse struct {
	Room     *room.Room `json:"room"`
	NextEtag string     `json:"nextEtag,omitempty"`
}

// ClaimDealRequest asks for the seat's initial deal.
type ClaimDealRequest struct {
	Seat  room.SeatID `json:"seat"`
	Token string      `json:"token"`
}
