// Package roster loads combatant definitions from a CSV table, with an
// optional YAML file of extra moves, and serves case-insensitive lookups.
package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cast"

	"github.com/Iron-Ham/pokebattle/internal/combatant"
	"github.com/Iron-Ham/pokebattle/internal/errors"
	"github.com/Iron-Ham/pokebattle/internal/logging"
)

// Defaults for missing or unparseable numeric cells.
const (
	DefaultHP   = 100
	DefaultStat = 50
)

// againstPrefix marks type-effectiveness columns, e.g. against_fire.
const againstPrefix = "against_"

// Roster is an immutable set of loaded combatants.
type Roster struct {
	entries map[string]*combatant.Combatant // folded name -> canonical combatant
	order   []string                        // names in file order
}

// Lookup returns an independent copy of the named combatant. Names are
// matched case-insensitively.
func (r *Roster) Lookup(name string) (*combatant.Combatant, bool) {
	c, ok := r.entries[combatant.Key(strings.TrimSpace(name))]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

// Get is Lookup returning a LookupError when the name is unknown.
func (r *Roster) Get(name string) (*combatant.Combatant, error) {
	c, ok := r.Lookup(name)
	if !ok {
		return nil, errors.NewLookupError(errors.LookupCombatant, name)
	}
	return c, nil
}

// Names returns combatant names in file order.
func (r *Roster) Names() []string {
	return slices.Clone(r.order)
}

// Len returns the number of combatants.
func (r *Roster) Len() int { return len(r.order) }

func (r *Roster) add(c *combatant.Combatant) {
	k := combatant.Key(c.Name)
	if _, exists := r.entries[k]; !exists {
		r.order = append(r.order, c.Name)
	}
	r.entries[k] = c
}

// Loader reads roster files through an afero filesystem.
type Loader struct {
	fs     afero.Fs
	logger *logging.Logger
}

// NewLoader creates a Loader. A nil fs means the OS filesystem.
func NewLoader(fs afero.Fs, logger *logging.Logger) *Loader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Loader{fs: fs, logger: logger.WithComponent("roster")}
}

// Load reads the CSV table at csvPath and, if movesPath is non-empty,
// applies its move overrides.
func (l *Loader) Load(csvPath, movesPath string) (*Roster, error) {
	f, err := l.fs.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster %s: %w", csvPath, err)
	}
	defer f.Close()

	r, err := l.parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse roster %s: %w", csvPath, err)
	}

	if movesPath != "" {
		if err := l.applyMoves(r, movesPath); err != nil {
			return nil, err
		}
	}

	l.logger.Info("roster loaded", "path", csvPath, "combatants", r.Len())
	return r, nil
}

// Parse reads a CSV table from rd without any move overrides.
func (l *Loader) Parse(rd io.Reader) (*Roster, error) {
	return l.parse(rd)
}

func (l *Loader) parse(rd io.Reader) (*Roster, error) {
	cr := csv.NewReader(rd)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	r := &Roster{entries: make(map[string]*combatant.Combatant)}

	header, err := cr.Read()
	if err == io.EOF {
		return r, nil
	}
	if err != nil {
		return nil, err
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}

	line := 1
	for {
		row, err := cr.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			l.logger.Warn("skipping unreadable roster row", "line", line, "error", err)
			continue
		}

		get := func(col string) string {
			i, ok := cols[col]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		name := get("name")
		if name == "" {
			continue
		}

		stats := combatant.Stats{
			MaxHP:     intCell(get("hp"), DefaultHP),
			Attack:    intCell(get("attack"), DefaultStat),
			Defense:   intCell(get("defense"), DefaultStat),
			SpAttack:  intCell(get("sp_attack"), DefaultStat),
			SpDefense: intCell(get("sp_defense"), DefaultStat),
			Speed:     intCell(get("speed"), DefaultStat),
		}

		c := combatant.New(strings.ToUpper(name), stats, get("type1"), get("type2"))
		c.IsLegendary = cast.ToBool(get("is_legendary"))

		for i, h := range header {
			h = strings.ToLower(strings.TrimSpace(h))
			if !strings.HasPrefix(h, againstPrefix) || len(h) == len(againstPrefix) {
				continue
			}
			mult := 1.0
			if i < len(row) {
				if cell := strings.TrimSpace(row[i]); cell != "" {
					if v, err := cast.ToFloat64E(cell); err == nil {
						mult = v
					}
				}
			}
			c.SetAgainst(strings.TrimPrefix(h, againstPrefix), mult)
		}

		combatant.AttachDefaultMoves(c)
		r.add(c)
	}

	return r, nil
}

// intCell coerces a decimal numeric cell, accepting "45", "045" and "45.0".
func intCell(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	if f, err := cast.ToFloat64E(s); err == nil {
		return int(f)
	}
	return def
}
