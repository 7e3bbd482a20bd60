package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/calebforth/ventureboard/internal/catalog"
	"github.com/calebforth/ventureboard/internal/controller"
	"github.com/calebforth/ventureboard/internal/room"
	"github.com/calebforth/ventureboard/internal/server"
)

// CreateRoomCmd creates and persists a new room.
type CreateRoomCmd struct {
	Config string `kong:"default='ventureboard.hcl',help='Path to HCL config file'"`
	Seats  int    `kong:"default='4',help='Number of seats (2-4)'"`
	Seed   string `kong:"help='Deterministic room seed (optional)'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
}

func (c *CreateRoomCmd) Run() error {
	if c.Seats < 2 || c.Seats > 4 {
		return fmt.Errorf("seats must be 2-4, got %d", c.Seats)
	}

	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Server.LogLevel, c.Debug)

	cat, err := catalog.Load()
	if err != nil {
		return err
	}
	st, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	seatIDs := []room.SeatID{room.SeatA, room.SeatB, room.SeatC, room.SeatD}
	tokens := make(map[room.SeatID]string, c.Seats)
	for _, id := range seatIDs[:c.Seats] {
		tokens[id] = newToken()
	}

	ctl := controller.New(st, cat, controller.WithLogger(logger))
	created, etag, err := ctl.Create(context.Background(), controller.CreateParams{
		Seed:       c.Seed,
		SeatTokens: tokens,
	})
	if err != nil {
		return err
	}

	fmt.Printf("room: %s\netag: %s\n", created.ID, etag)
	for _, id := range seatIDs[:c.Seats] {
		fmt.Printf("seat %s token: %s\n", id, tokens[id])
	}
	return nil
}

func newToken() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("token entropy unavailable: " + err.Error())
	}
	return hex.EncodeToString(b[:])
}
