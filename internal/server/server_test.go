package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calebforth/ventureboard/internal/catalog"
	"github.com/calebforth/ventureboard/internal/protocol"
	"github.com/calebforth/ventureboard/internal/room"
	"github.com/calebforth/ventureboard/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cat, err := catalog.Load()
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Storage.Driver = "memory"
	return NewServer(cfg, store.NewMemStore(), cat, log.New(io.Discard))
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v), "body: %s", w.Body.String())
	return v
}

func createRoomHTTP(t *testing.T, h http.Handler) *room.Room {
	t.Helper()

	w := postJSON(t, h, "/rooms", protocol.CreateRoomRequest{
		Seed: "seed-http",
		SeatTokens: map[room.SeatID]string{
			room.SeatA: "token-a",
			room.SeatB: "token-b",
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decodeBody[protocol.CreateRoomResponse](t, w)
	require.NotNil(t, resp.Room)
	return resp.Room
}

func TestHealth(t *testing.T) {
	t.Parallel()

	h := newTestServer(t).Handler()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCreateAndGetRoom(t *testing.T) {
	t.Parallel()

	h := newTestServer(t).Handler()
	created := createRoomHTTP(t, h)

	req := httptest.NewRequest(http.MethodGet, "/rooms/"+created.ID, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("ETag"))
	resp := decodeBody[protocol.SuccessResponse](t, w)
	assert.Equal(t, created.ID, resp.Room.ID)
	assert.Equal(t, 1, resp.Room.Version)

	// The projection over the wire carries no credentials or queued deals.
	assert.NotContains(t, w.Body.String(), "tokenHash")
}

func TestCreateRoomValidation(t *testing.T) {
	t.Parallel()

	h := newTestServer(t).Handler()

	w := postJSON(t, h, "/rooms", protocol.CreateRoomRequest{
		SeatTokens: map[room.SeatID]string{room.SeatA: "only-one"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(t, h, "/rooms", protocol.CreateRoomRequest{
		SeatTokens: map[room.SeatID]string{
			room.SeatA: "a", room.SeatB: "b", room.SeatC: "c", room.SeatD: "d", "E": "e",
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetRoomNotFound(t *testing.T) {
	t.Parallel()

	h := newTestServer(t).Handler()
	req := httptest.NewRequest(http.MethodGet, "/rooms/nope", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestActionFlow(t *testing.T) {
	t.Parallel()

	h := newTestServer(t).Handler()
	created := createRoomHTTP(t, h)
	actions := "/rooms/" + created.ID + "/actions"

	// Applied: the current seat ends its turn.
	w := postJSON(t, h, actions, map[string]any{
		"seat":              "A",
		"token":             "token-a",
		"expectedVersion":   created.Version,
		"expectedTurnNonce": created.TurnNonce,
		"action":            map[string]any{"type": "END_TURN"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody[protocol.SuccessResponse](t, w)
	assert.Equal(t, created.Version+1, resp.Room.Version)
	assert.NotEmpty(t, resp.NextEtag)

	// Conflict: the stale version comes back with the latest state.
	w = postJSON(t, h, actions, map[string]any{
		"seat":            "B",
		"token":           "token-b",
		"expectedVersion": created.Version,
		"action":          map[string]any{"type": "PICK_ASSET"},
	})
	require.Equal(t, http.StatusConflict, w.Code)
	conflict := decodeBody[protocol.ConflictResponse](t, w)
	require.NotNil(t, conflict.LatestState)
	assert.Equal(t, created.Version+1, conflict.LatestState.Version)
	assert.NotEmpty(t, conflict.Error)
}

func TestActionStatusMapping(t *testing.T) {
	t.Parallel()

	h := newTestServer(t).Handler()
	created := createRoomHTTP(t, h)
	actions := "/rooms/" + created.ID + "/actions"

	// Schema failure: 400 before any state is read.
	req := httptest.NewRequest(http.MethodPost, actions, strings.NewReader(`{"seat":"A"}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Bad credential: 403.
	w2 := postJSON(t, h, actions, map[string]any{
		"seat":            "A",
		"token":           "wrong",
		"expectedVersion": created.Version,
		"action":          map[string]any{"type": "PICK_ASSET"},
	})
	assert.Equal(t, http.StatusForbidden, w2.Code)

	// Unknown room: 404.
	w3 := postJSON(t, h, "/rooms/nope/actions", map[string]any{
		"seat":            "A",
		"token":           "token-a",
		"expectedVersion": 1,
		"action":          map[string]any{"type": "PICK_ASSET"},
	})
	assert.Equal(t, http.StatusNotFound, w3.Code)

	// Domain rejection: 422.
	w4 := postJSON(t, h, actions, map[string]any{
		"seat":            "A",
		"token":           "token-a",
		"expectedVersion": created.Version,
		"action":          map[string]any{"type": "START_PROJECT", "projectId": "project-nowhere"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w4.Code)
}

func TestClaimDealEndpoint(t *testing.T) {
	t.Parallel()

	h := newTestServer(t).Handler()
	created := createRoomHTTP(t, h)
	deal := "/rooms/" + created.ID + "/deal"

	w := postJSON(t, h, deal, protocol.ClaimDealRequest{Seat: room.SeatA, Token: "token-a"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody[protocol.SuccessResponse](t, w)
	require.NotNil(t, resp.PrivateDelta)
	assert.Len(t, resp.PrivateDelta.AddedCardIDs, room.InitialDealSize)
	assert.Equal(t, room.InitialDealSize, resp.Room.Seats[room.SeatA].HandSize)

	// Claiming twice is a domain rejection.
	w = postJSON(t, h, deal, protocol.ClaimDealRequest{Seat: room.SeatA, Token: "token-a"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestWatchStreamsUpdates(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	h := srv.Handler()
	created := createRoomHTTP(t, h)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/rooms/" + created.ID + "/watch"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	// The current state arrives immediately on connect.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var initial room.Room
	require.NoError(t, conn.ReadJSON(&initial))
	assert.Equal(t, created.Version, initial.Version)

	// A committed action fans out to the watcher.
	w := postJSON(t, h, fmt.Sprintf("/rooms/%s/actions", created.ID), map[string]any{
		"seat":              "A",
		"token":             "token-a",
		"expectedVersion":   created.Version,
		"expectedTurnNonce": created.TurnNonce,
		"action":            map[string]any{"type": "END_TURN"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated room.Room
	require.NoError(t, conn.ReadJSON(&updated))
	assert.Equal(t, created.Version+1, updated.Version)
	assert.Nil(t, updated.DealQueue, "watch stream carries the public projection only")
}

func TestWatchUnknownRoom(t *testing.T) {
	t.Parallel()

	h := newTestServer(t).Handler()
	req := httptest.NewRequest(http.MethodGet, "/rooms/nope/watch", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
