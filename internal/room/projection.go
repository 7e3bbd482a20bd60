package room

// PublicProjection returns a copy safe to return to any client: seat
// credentials and the server-side deal queue are stripped. Hand card
// identities never appear in the room document at all, so handSize is
// already the only hand information present.
func (r *Room) PublicProjection() *Room {
	p := r.Clone()
	p.DealQueue = nil
	for _, s := range p.Seats {
		s.TokenHash = ""
	}
	return p
}
