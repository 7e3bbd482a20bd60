package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/calebforth/ventureboard/internal/controller"
	"github.com/calebforth/ventureboard/internal/protocol"
	"github.com/calebforth/ventureboard/internal/store"
)

const maxBodyBytes = 1 << 20

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req protocol.CreateRoomRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.SeatTokens) < 2 || len(req.SeatTokens) > 4 {
		s.writeError(w, http.StatusBadRequest, "seatTokens must name 2-4 seats")
		return
	}

	created, etag, err := s.ctl.Create(r.Context(), controller.CreateParams{
		Seed:       req.Seed,
		SeatTokens: req.SeatTokens,
	})
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.writeJSON(w, http.StatusCreated, protocol.CreateRoomResponse{Room: created, NextEtag: etag})
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	projection, etag, err := s.ctl.Fetch(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "room not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if etag != "" {
		w.Header().Set("ETag", etag)
	}
	s.writeJSON(w, http.StatusOK, protocol.SuccessResponse{Room: projection, NextEtag: etag})
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	if err := protocol.ValidateActionRequest(body); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req controller.Request
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed request: "+err.Error())
		return
	}

	outcome := s.ctl.Submit(r.Context(), r.PathValue("id"), req)
	s.writeOutcome(w, outcome)
}

func (s *Server) handleClaimDeal(w http.ResponseWriter, r *http.Request) {
	var req protocol.ClaimDealRequest
	if !s.decode(w, r, &req) {
		return
	}

	outcome := s.ctl.ClaimDeal(r.Context(), r.PathValue("id"), req.Seat, req.Token)
	s.writeOutcome(w, outcome)
}

func (s *Server) writeOutcome(w http.ResponseWriter, outcome controller.Outcome) {
	switch outcome.Status {
	case controller.StatusApplied:
		s.writeJSON(w, http.StatusOK, protocol.SuccessResponse{
			Room:         outcome.Room,
			PrivateDelta: outcome.Delta,
			NextEtag:     outcome.NextEtag,
		})

	case controller.StatusConflict:
		s.writeJSON(w, http.StatusConflict, protocol.ConflictResponse{
			Error:       outcome.Err.Error(),
			LatestState: outcome.Room,
		})

	default:
		status := http.StatusBadRequest
		switch outcome.Class {
		case controller.ClassAuth:
			status = http.StatusForbidden
		case controller.ClassNotFound:
			status = http.StatusNotFound
		case controller.ClassDomain:
			status = http.StatusUnprocessableEntity
		}
		s.writeError(w, status, outcome.Err.Error())
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed request: "+err.Error())
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, protocol.ErrorResponse{Error: msg})
}
