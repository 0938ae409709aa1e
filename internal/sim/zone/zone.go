package zone

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrNonSquare = errors.New("zone must be square in the X-Z plane")
	ErrEmpty     = errors.New("zone dimensions must be positive")
)

// Size is the build zone bounding box. Grids are indexed (Y, X, Z).
type Size struct {
	Y int `yaml:"y" json:"y"`
	X int `yaml:"x" json:"x"`
	Z int `yaml:"z" json:"z"`
}

// Default is the 9x11x11 build zone used by the IGLU environment.
var Default = Size{Y: 9, X: 11, Z: 11}

func (s Size) Volume() int { return s.Y * s.X * s.Z }

func (s Size) String() string { return fmt.Sprintf("%dx%dx%d", s.Y, s.X, s.Z) }

// Validate rejects sizes the matcher cannot rotate. A quarter turn swaps the
// X and Z axes, so they must agree.
func (s Size) Validate() error {
	if s.Y <= 0 || s.X <= 0 || s.Z <= 0 {
		return fmt.Errorf("%w: %s", ErrEmpty, s)
	}
	if s.X != s.Z {
		return fmt.Errorf("%w: x=%d z=%d", ErrNonSquare, s.X, s.Z)
	}
	return nil
}

// Contains reports whether (y, x, z) lies inside the zone.
func (s Size) Contains(y, x, z int) bool {
	return y >= 0 && y < s.Y && x >= 0 && x < s.X && z >= 0 && z < s.Z
}

type Config struct {
	Size Size `yaml:"size"`
}

// Load reads zone.yaml. An empty path yields the default zone.
func Load(path string) (Config, error) {
	cfg := Config{Size: Default}
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("zone.yaml: %w", err)
	}
	if err := cfg.Size.Validate(); err != nil {
		return cfg, fmt.Errorf("zone.yaml: %w", err)
	}
	return cfg, nil
}
