package roster

import (
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/pokebattle/internal/combatant"
	"github.com/Iron-Ham/pokebattle/internal/errors"
)

// AllCombatants is the moves-file key whose moves go to every combatant.
const AllCombatants = "*"

// movesFile is the YAML layout of a move override file:
//
//	"*":
//	  - {name: Struggle, power: 50, category: physical, type: Normal}
//	CHARIZARD:
//	  - {name: Flamethrower, power: 90, category: special, type: Fire}
//
// A move sharing a name with an existing move replaces it in place.
type movesFile map[string][]moveEntry

type moveEntry struct {
	Name     string `yaml:"name"`
	Power    int    `yaml:"power"`
	Category string `yaml:"category"`
	Type     string `yaml:"type"`
}

func (e moveEntry) toMove() (combatant.Move, error) {
	cat, err := combatant.ParseCategory(e.Category)
	if err != nil {
		return combatant.Move{}, err
	}
	return combatant.NewMove(e.Name, e.Power, cat, e.Type)
}

func (l *Loader) applyMoves(r *Roster, path string) error {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return fmt.Errorf("failed to read moves file %s: %w", path, err)
	}

	var file movesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse moves file %s: %w", path, err)
	}

	// Wildcard moves go first so per-combatant entries can override them.
	if entries, ok := file[AllCombatants]; ok {
		for _, name := range r.order {
			if err := addMoves(r.entries[combatant.Key(name)], entries); err != nil {
				return fmt.Errorf("moves file %s: %w", path, err)
			}
		}
	}

	for name, entries := range file {
		if name == AllCombatants {
			continue
		}
		c, ok := r.entries[combatant.Key(name)]
		if !ok {
			l.logger.Warn("moves file names unknown combatant",
				"path", path,
				"error", errors.NewLookupError(errors.LookupCombatant, name))
			continue
		}
		if err := addMoves(c, entries); err != nil {
			return fmt.Errorf("moves file %s: %w", path, err)
		}
	}
	return nil
}

func addMoves(c *combatant.Combatant, entries []moveEntry) error {
	for _, e := range entries {
		m, err := e.toMove()
		if err != nil {
			return fmt.Errorf("%s: %w", c.Name, err)
		}
		c.AddMove(m)
	}
	return nil
}
