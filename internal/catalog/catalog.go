// Package catalog holds the static card definitions the engine plays with.
// The tables are loaded once at process start from embedded data and never
// mutated afterwards, so a single Catalog value is safe to share across
// concurrent requests without locking.
package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed cards.yaml
var cardsYAML []byte

// Outcomes are the three numeric axes an asset or obstacle contributes when
// allocated to a project.
type Outcomes struct {
	Budget    int `yaml:"budget" json:"budget"`
	Headcount int `yaml:"headcount" json:"headcount"`
	Tailwind  int `yaml:"tailwind" json:"tailwind"`
}

// Rewards are the scoring payout of a project that reached MV or TF.
type Rewards struct {
	Growth int `yaml:"growth" json:"growth"`
	Fuel   int `yaml:"fuel" json:"fuel"`
}

// Asset is a playable hand card.
type Asset struct {
	ID       string   `yaml:"id" json:"id"`
	Name     string   `yaml:"name" json:"name"`
	Outcomes Outcomes `yaml:"outcomes" json:"outcomes"`

	// PickCondition, when non-empty, gates the asset from the unconditional
	// market pick. The condition is interpreted client-side; the engine only
	// cares whether one is present.
	PickCondition string `yaml:"pick_condition,omitempty" json:"pickCondition,omitempty"`
}

// Project is a startable market card with staged tailwind thresholds.
type Project struct {
	ID      string  `yaml:"id" json:"id"`
	Name    string  `yaml:"name" json:"name"`
	MVReq   int     `yaml:"mv_req" json:"mvReq"`
	TFReq   int     `yaml:"tf_req" json:"tfReq"`
	Rewards Rewards `yaml:"rewards" json:"rewards"`

	// RestartBurdenTailwind is the extra tailwind a paused project costs to
	// restart. Zero means the engine default applies.
	RestartBurdenTailwind int `yaml:"restart_burden_tailwind,omitempty" json:"restartBurdenTailwind,omitempty"`
}

// Obstacle is catalog-complete data; no in-scope operation draws one.
type Obstacle struct {
	ID       string   `yaml:"id" json:"id"`
	Name     string   `yaml:"name" json:"name"`
	Outcomes Outcomes `yaml:"outcomes" json:"outcomes"`
}

// MacroEvent is revealed at the start of rounds two and three and installs
// round modifiers.
type MacroEvent struct {
	ID            string   `yaml:"id" json:"id"`
	Name          string   `yaml:"name" json:"name"`
	RuleModifiers []string `yaml:"rule_modifiers,omitempty" json:"ruleModifiers,omitempty"`
}

// Catalog is the full set of card definitions. Maps are keyed by card id;
// the *IDs slices preserve source order, which fixes initial deck composition
// before the seeded shuffle.
type Catalog struct {
	Assets      map[string]Asset
	Projects    map[string]Project
	Obstacles   map[string]Obstacle
	MacroEvents map[string]MacroEvent

	AssetIDs      []string
	ProjectIDs    []string
	ObstacleIDs   []string
	MacroEventIDs []string
}

type cardsDoc struct {
	Assets      []Asset      `yaml:"assets"`
	Projects    []Project    `yaml:"projects"`
	Obstacles   []Obstacle   `yaml:"obstacles"`
	MacroEvents []MacroEvent `yaml:"macro_events"`
}

// Load parses the embedded card data into an immutable Catalog.
func Load() (*Catalog, error) {
	return Parse(cardsYAML)
}

// Parse builds a Catalog from raw YAML. Split out from Load so tests can
// feed reduced fixtures through the same validation.
func Parse(data []byte) (*Catalog, error) {
	var doc cardsDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse card data: %w", err)
	}

	c := &Catalog{
		Assets:      make(map[string]Asset, len(doc.Assets)),
		Projects:    make(map[string]Project, len(doc.Projects)),
		Obstacles:   make(map[string]Obstacle, len(doc.Obstacles)),
		MacroEvents: make(map[string]MacroEvent, len(doc.MacroEvents)),
	}

	seen := make(map[string]bool)
	claim := func(id, kind string) error {
		if id == "" {
			return fmt.Errorf("catalog: %s with empty id", kind)
		}
		if seen[id] {
			return fmt.Errorf("catalog: duplicate card id %q", id)
		}
		seen[id] = true
		return nil
	}

	for _, a := range doc.Assets {
		if err := claim(a.ID, "asset"); err != nil {
			return nil, err
		}
		c.Assets[a.ID] = a
		c.AssetIDs = append(c.AssetIDs, a.ID)
	}
	for _, p := range doc.Projects {
		if err := claim(p.ID, "project"); err != nil {
			return nil, err
		}
		if p.MVReq <= 0 || p.TFReq <= 0 {
			return nil, fmt.Errorf("catalog: project %q has non-positive stage thresholds", p.ID)
		}
		if p.RestartBurdenTailwind < 0 {
			return nil, fmt.Errorf("catalog: project %q has negative restart burden", p.ID)
		}
		c.Projects[p.ID] = p
		c.ProjectIDs = append(c.ProjectIDs, p.ID)
	}
	for _, o := range doc.Obstacles {
		if err := claim(o.ID, "obstacle"); err != nil {
			return nil, err
		}
		c.Obstacles[o.ID] = o
		c.ObstacleIDs = append(c.ObstacleIDs, o.ID)
	}
	for _, e := range doc.MacroEvents {
		if err := claim(e.ID, "macro event"); err != nil {
			return nil, err
		}
		c.MacroEvents[e.ID] = e
		c.MacroEventIDs = append(c.MacroEventIDs, e.ID)
	}

	return c, nil
}

// Counts returns per-kind definition counts for inspection output.
func (c *Catalog) Counts() (assets, projects, obstacles, macroEvents int) {
	return len(c.Assets), len(c.Projects), len(c.Obstacles), len(c.MacroEvents)
}
