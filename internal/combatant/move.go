package combatant

import (
	"fmt"

	"github.com/Iron-Ham/pokebattle/internal/errors"
)

// Category selects which stat pair a move uses.
type Category string

const (
	Physical Category = "physical"
	Special  Category = "special"
)

// ParseCategory accepts either category name in any case.
func ParseCategory(s string) (Category, error) {
	switch fold(s) {
	case string(Physical):
		return Physical, nil
	case string(Special):
		return Special, nil
	}
	return "", errors.NewValidationError("unknown move category").
		WithField("category").
		WithValue(s)
}

// Move is an immutable named action.
type Move struct {
	Name     string   `yaml:"name" json:"name"`
	Power    int      `yaml:"power" json:"power"`
	Category Category `yaml:"category" json:"category"`
	Type     string   `yaml:"type" json:"type"`
}

// NewMove validates and builds a Move.
func NewMove(name string, power int, category Category, moveType string) (Move, error) {
	if name == "" {
		return Move{}, errors.NewValidationError("move name is required").WithField("name")
	}
	if power < 0 {
		return Move{}, errors.NewValidationError("move power must be non-negative").
			WithField("power").
			WithValue(power)
	}
	if category != Physical && category != Special {
		return Move{}, errors.NewValidationError("unknown move category").
			WithField("category").
			WithValue(category)
	}
	if moveType == "" {
		moveType = NormalType
	}
	return Move{Name: name, Power: power, Category: category, Type: moveType}, nil
}

// IsSpecial reports whether the move uses the special stat pair.
func (m Move) IsSpecial() bool { return m.Category == Special }

func (m Move) String() string {
	return fmt.Sprintf("%s (%s %s pow:%d)", m.Name, m.Type, m.Category, m.Power)
}

// DefaultMoves returns the move set every loaded combatant carries.
// Elemental Beam takes the given primary type, or NormalType if empty.
func DefaultMoves(primaryType string) []Move {
	if primaryType == "" {
		primaryType = NormalType
	}
	return []Move{
		{Name: "Tackle", Power: 40, Category: Physical, Type: NormalType},
		{Name: "Elemental Beam", Power: 60, Category: Special, Type: primaryType},
		{Name: "Power Hit", Power: 75, Category: Physical, Type: NormalType},
		{Name: "Neutral Burst", Power: 50, Category: Special, Type: NormalType},
	}
}

// AttachDefaultMoves adds DefaultMoves for c's primary type.
func AttachDefaultMoves(c *Combatant) {
	for _, m := range DefaultMoves(c.PrimaryType()) {
		c.AddMove(m)
	}
}
