package engine

import (
	"sort"

	"github.com/calebforth/ventureboard/internal/room"
)

// scoreGame computes the final per-seat scores and the winner set. Run once,
// at the final round boundary.
func (e *Engine) scoreGame(r *room.Room) *room.FinalScoring {
	fs := &room.FinalScoring{Scores: make(map[room.SeatID]room.SeatScore)}

	joined := r.JoinedSeats()
	best := 0
	haveBest := false

	for _, id := range joined {
		s := r.Seats[id]
		var growth, fuel, penalties int

		for _, p := range s.Projects {
			if def, ok := e.cat.Projects[p.ID]; ok {
				switch p.Stage {
				case room.StageMV:
					growth += def.Rewards.Growth
					fuel += def.Rewards.Fuel
				case room.StageTF:
					// A completed project pays its rewards twice.
					growth += 2 * def.Rewards.Growth
					fuel += 2 * def.Rewards.Fuel
				}
			}
			if p.Paused || p.AbandonedPenaltyCount > 0 {
				penalties++
			}
		}

		lower, upper := growth, fuel
		if lower > upper {
			lower, upper = upper, lower
		}
		base := lower + (upper-lower)/3
		final := base - penalties

		fs.Scores[id] = room.SeatScore{
			Growth:    growth,
			Fuel:      fuel,
			BaseScore: base,
			Penalties: penalties,
			Final:     final,
		}

		if !haveBest || final > best {
			best, haveBest = final, true
		}
	}

	for id, score := range fs.Scores {
		if score.Final == best {
			fs.Winners = append(fs.Winners, id)
		}
	}
	sort.Slice(fs.Winners, func(i, j int) bool { return fs.Winners[i] < fs.Winners[j] })
	fs.Tie = len(fs.Winners) > 1

	return fs
}
