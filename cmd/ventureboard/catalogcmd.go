package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/calebforth/ventureboard/internal/catalog"
)

// CatalogCmd dumps the embedded card catalog.
type CatalogCmd struct {
	JSON bool `kong:"help='Emit full definitions as JSON'"`
}

func (c *CatalogCmd) Run() error {
	cat, err := catalog.Load()
	if err != nil {
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"assets":      cat.Assets,
			"projects":    cat.Projects,
			"obstacles":   cat.Obstacles,
			"macroEvents": cat.MacroEvents,
		})
	}

	assets, projects, obstacles, events := cat.Counts()
	fmt.Printf("assets: %d\nprojects: %d\nobstacles: %d\nmacro events: %d\n",
		assets, projects, obstacles, events)
	return nil
}
