package sim

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/navrunner/internal/model"
)

// defaultMaxFrames stops a scenario that never finishes.
const defaultMaxFrames = 20000

// Territory is a zone's static definition.
type Territory struct {
	ID            model.TerritoryID `yaml:"id"`
	Name          string            `yaml:"name"`
	MountAllowed  bool              `yaml:"mount_allowed"`
	FlightAllowed bool              `yaml:"flight_allowed"`
}

// Speeds are avatar speeds in units per second.
type Speeds struct {
	Run     float32 `yaml:"run"`
	Sprint  float32 `yaml:"sprint"`
	Mounted float32 `yaml:"mounted"`
	Flying  float32 `yaml:"flying"`
}

// DefaultSpeeds returns the client's base movement speeds.
func DefaultSpeeds() Speeds {
	return Speeds{
		Run:     6,
		Sprint:  7.8,
		Mounted: 9,
		Flying:  12,
	}
}

// Point is a position written as a YAML sequence [x, y, z].
type Point model.Vec3

// UnmarshalYAML decodes [x, y, z].
func (p *Point) UnmarshalYAML(value *yaml.Node) error {
	var coords []float32
	if err := value.Decode(&coords); err != nil {
		return fmt.Errorf("line %d: point: %w", value.Line, err)
	}
	if len(coords) != 3 {
		return fmt.Errorf("line %d: point needs 3 coordinates, got %d", value.Line, len(coords))
	}
	*p = Point{X: coords[0], Y: coords[1], Z: coords[2]}
	return nil
}

// Vec3 converts the point to a world position.
func (p Point) Vec3() model.Vec3 {
	return model.Vec3(p)
}

// Start is where the avatar spawns.
type Start struct {
	Territory model.TerritoryID `yaml:"territory"`
	Position  Point             `yaml:"position"`
}

// Scenario describes a simulated run: the zones, the spawn, and the route to walk.
type Scenario struct {
	Name        string      `yaml:"name"`
	Territories []Territory `yaml:"territories"`
	Start       Start       `yaml:"start"`
	OwnedMounts []uint32    `yaml:"owned_mounts"`
	Speeds      Speeds      `yaml:"speeds"`
	Waypoints   []Point     `yaml:"waypoints"`
	MaxFrames   int         `yaml:"max_frames"`
}

// Route returns the waypoints as world positions.
func (s Scenario) Route() []model.Vec3 {
	out := make([]model.Vec3, len(s.Waypoints))
	for i, p := range s.Waypoints {
		out[i] = p.Vec3()
	}
	return out
}

// Validate checks that the scenario can be simulated.
func (s Scenario) Validate() error {
	if len(s.Territories) == 0 {
		return errors.New("scenario has no territories")
	}

	seen := make(map[model.TerritoryID]bool, len(s.Territories))
	for _, t := range s.Territories {
		if seen[t.ID] {
			return fmt.Errorf("duplicate territory %d", t.ID)
		}
		seen[t.ID] = true
	}
	if !seen[s.Start.Territory] {
		return fmt.Errorf("start territory %d is not defined", s.Start.Territory)
	}

	sp := s.Speeds
	if sp.Run <= 0 || sp.Sprint <= 0 || sp.Mounted <= 0 || sp.Flying <= 0 {
		return fmt.Errorf("speeds must be positive: %+v", sp)
	}
	if s.MaxFrames <= 0 {
		return fmt.Errorf("max_frames must be positive, got %d", s.MaxFrames)
	}
	return nil
}

// ParseScenario decodes a scenario, filling unset speeds and frame limit.
func ParseScenario(data []byte) (Scenario, error) {
	sc := Scenario{
		Speeds:    DefaultSpeeds(),
		MaxFrames: defaultMaxFrames,
	}
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return sc, fmt.Errorf("parsing scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return sc, fmt.Errorf("invalid scenario %q: %w", sc.Name, err)
	}
	return sc, nil
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("reading scenario %s: %w", path, err)
	}
	return ParseScenario(data)
}
