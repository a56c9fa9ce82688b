package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/saaga0h/paintmix-platform/internal/color"
	"github.com/saaga0h/paintmix-platform/internal/paint"
)

// seedFile is the YAML layout of a seed ingredient file:
//
//	ingredients:
//	  - name: Red pigment
//	    mix_time: 30
//	    mix_speed: 100
//	    color: rgb(255, 0, 0)
//	    texture: smooth
type seedFile struct {
	Ingredients []paint.Ingredient `yaml:"ingredients"`
}

// DefaultSeed is the built-in test data
func DefaultSeed() []paint.Ingredient {
	return []paint.Ingredient{
		{Name: "Red pigment", MixSeconds: 30, MixSpeed: 100, Color: color.RGB{R: 255}, Texture: paint.TextureSmooth, Seed: true},
		{Name: "Blue pigment", MixSeconds: 45, MixSpeed: 150, Color: color.RGB{B: 255}, Texture: paint.TextureGranular, Seed: true},
		{Name: "Yellow pigment", MixSeconds: 25, MixSpeed: 120, Color: color.RGB{R: 255, G: 255}, Texture: paint.TexturePowder, Seed: true},
	}
}

// LoadSeed reads seed ingredients from path, or returns DefaultSeed when
// path is empty
func LoadSeed(path string) ([]paint.Ingredient, error) {
	if path == "" {
		return DefaultSeed(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes a seed file
func ParseSeed(data []byte) ([]paint.Ingredient, error) {
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	for i := range file.Ingredients {
		texture, err := paint.ParseTexture(string(file.Ingredients[i].Texture))
		if err != nil {
			return nil, fmt.Errorf("seed ingredient %d: %w", i+1, err)
		}
		file.Ingredients[i].Texture = texture
		file.Ingredients[i].Seed = true
	}
	return file.Ingredients, nil
}
