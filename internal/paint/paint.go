// Package paint holds ingredients, pots and the capacity rules that guard them.
package paint

import (
	"errors"
	"fmt"
	"strings"

	"github.com/saaga0h/paintmix-platform/internal/color"
	"github.com/saaga0h/paintmix-platform/internal/weather"
)

// MaxIngredientsPerPot is the pot capacity
const MaxIngredientsPerPot = 3

var (
	// ErrCapacity is the parent of every placement rejection
	ErrCapacity = errors.New("capacity rule violated")

	ErrPotFull       = fmt.Errorf("%w: pot is full", ErrCapacity)
	ErrSpeedMismatch = fmt.Errorf("%w: mix speed differs from pot", ErrCapacity)
	ErrPotEmpty      = fmt.Errorf("%w: pot has no ingredients", ErrCapacity)

	// ErrInvalidIngredient is returned by Ingredient.Validate
	ErrInvalidIngredient = errors.New("invalid ingredient")
)

// Texture is the surface structure of a pigment
type Texture string

const (
	TextureSmooth   Texture = "smooth"
	TextureGranular Texture = "granular"
	TexturePowder   Texture = "powder"
	TextureCoarse   Texture = "coarse"
)

// ParseTexture accepts any casing of a known texture
func ParseTexture(s string) (Texture, error) {
	t := Texture(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case TextureSmooth, TextureGranular, TexturePowder, TextureCoarse:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown texture %q", ErrInvalidIngredient, s)
}

// Ingredient is a pigment with its mixing parameters
type Ingredient struct {
	Name       string    `json:"name" yaml:"name"`
	MixSeconds int       `json:"mix_time" yaml:"mix_time"`
	MixSpeed   int       `json:"mix_speed" yaml:"mix_speed"`
	Color      color.RGB `json:"color" yaml:"color"`
	Texture    Texture   `json:"texture" yaml:"texture"`

	// Seed marks built-in test data; it is never persisted
	Seed bool `json:"seed,omitempty" yaml:"-"`
}

// Validate checks the fields an ingredient needs to take part in a mix
func (i Ingredient) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidIngredient)
	}
	if i.MixSeconds <= 0 {
		return fmt.Errorf("%w: %s: mix time must be positive, got %d", ErrInvalidIngredient, i.Name, i.MixSeconds)
	}
	if i.MixSpeed <= 0 {
		return fmt.Errorf("%w: %s: mix speed must be positive, got %d", ErrInvalidIngredient, i.Name, i.MixSpeed)
	}
	if _, err := ParseTexture(string(i.Texture)); err != nil {
		return fmt.Errorf("%s: %w", i.Name, err)
	}
	return nil
}

// Pot holds up to MaxIngredientsPerPot ingredients that share one mix speed.
// A Pot is not safe for concurrent use; the facility serializes access.
type Pot struct {
	Name        string
	ingredients []Ingredient
}

// NewPot creates an empty pot
func NewPot(name string) *Pot {
	return &Pot{Name: name}
}

// Add appends an ingredient after checking CanAddIngredient. The pot is
// unchanged on error.
func (p *Pot) Add(ing Ingredient) error {
	if err := CanAddIngredient(p, ing); err != nil {
		return err
	}
	p.ingredients = append(p.ingredients, ing)
	return nil
}

// Ingredients returns a copy of the pot contents in insertion order
func (p *Pot) Ingredients() []Ingredient {
	out := make([]Ingredient, len(p.ingredients))
	copy(out, p.ingredients)
	return out
}

// Len is the number of ingredients
func (p *Pot) Len() int {
	return len(p.ingredients)
}

// MixSpeed is the common speed of the contents, 0 when empty
func (p *Pot) MixSpeed() int {
	if len(p.ingredients) == 0 {
		return 0
	}
	return p.ingredients[0].MixSpeed
}

// BaseDuration is the longest ingredient mix time, or 0 for an empty pot
func (p *Pot) BaseDuration() int {
	longest := 0
	for _, ing := range p.ingredients {
		if ing.MixSeconds > longest {
			longest = ing.MixSeconds
		}
	}
	return longest
}

// CanAddIngredient reports whether ing may go into pot. A full pot is
// rejected before the speed is looked at.
func CanAddIngredient(pot *Pot, ing Ingredient) error {
	if pot.Len() >= MaxIngredientsPerPot {
		return fmt.Errorf("%w (%d/%d)", ErrPotFull, pot.Len(), MaxIngredientsPerPot)
	}
	if pot.Len() > 0 && ing.MixSpeed != pot.MixSpeed() {
		return fmt.Errorf("%w: %s runs at %d, pot at %d", ErrSpeedMismatch, ing.Name, ing.MixSpeed, pot.MixSpeed())
	}
	return nil
}

// CanCreateMachine reports whether a hall with hallMachineCount machines
// may get another one under the given weather
func CanCreateMachine(hallMachineCount int, reading *weather.Reading) bool {
	return weather.IsMachineCreationAllowed(reading, hallMachineCount)
}
