package room

import "slices"

// Stage is a project's progress tier. It is always recomputed from the
// project's accumulated tailwind against its catalog thresholds, never set
// independently.
type Stage string

const (
	StageNone Stage = "NONE"
	StageMV   Stage = "MV"
	StageTF   Stage = "TF"
)

// AllocatedTotals accumulates the outcome deltas of every card allocated to
// a project. Budget may go negative.
type AllocatedTotals struct {
	Budget    int `json:"budget"`
	Headcount int `json:"headcount"`
	Tailwind  int `json:"tailwind"`
}

// ProjectInstance is one started project owned by a seat.
type ProjectInstance struct {
	ID                    string          `json:"id"`
	Allocated             AllocatedTotals `json:"allocatedTotals"`
	AllocatedCardIDs      []string        `json:"allocatedCardIds"`
	Stage                 Stage           `json:"stage"`
	Paused                bool            `json:"paused"`
	RestartBurdenTailwind int             `json:"restartBurdenTailwind,omitempty"`
	AbandonedPenaltyCount int             `json:"abandonedPenaltyCount,omitempty"`
}

// Active reports whether the project can still receive allocations.
func (p *ProjectInstance) Active() bool {
	return !p.Paused && p.Stage != StageTF
}

// Clone returns an independent copy.
func (p *ProjectInstance) Clone() *ProjectInstance {
	c := *p
	c.AllocatedCardIDs = slices.Clone(p.AllocatedCardIDs)
	return &c
}

// Seat is one player slot. Card identities in the hand live client-side;
// the server tracks only the public count.
type Seat struct {
	Connected bool   `json:"connected"`
	TokenHash string `json:"tokenHash,omitempty"`

	HandSize      int  `json:"handSize"`
	MustDiscard   bool `json:"mustDiscard"`
	DiscardTarget int  `json:"discardTarget,omitempty"`

	Projects                 []*ProjectInstance `json:"projects"`
	ProjectsStartedThisRound int                `json:"projectsStartedThisRound"`

	// LastHandHash is the client-submitted proof hash of its hand contents.
	// Opaque to the server; shape-checked only.
	LastHandHash string `json:"lastHandHash,omitempty"`
}

// Project returns the owned instance with the given catalog id, or nil.
func (s *Seat) Project(id string) *ProjectInstance {
	for _, p := range s.Projects {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Clone returns an independent copy.
func (s *Seat) Clone() *Seat {
	c := *s
	c.Projects = make([]*ProjectInstance, len(s.Projects))
	for i, p := range s.Projects {
		c.Projects[i] = p.Clone()
	}
	return &c
}
