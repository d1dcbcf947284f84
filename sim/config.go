package sim

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every schema or decode failure of a tuning file.
var ErrInvalidConfig = errors.New("sim: invalid config")

//go:embed config.schema.json
var configSchemaJSON string

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func configSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("config.schema.json", configSchemaJSON)
	})
	return schema, schemaErr
}

type Config struct {
	Seed       uint64 `yaml:"seed"` // 0 seeds from the wall clock
	Workers    int    `yaml:"workers"`
	TickRateHz int    `yaml:"tick_rate_hz"`
	LogLevel   string `yaml:"log_level"`

	Template TemplateConfig  `yaml:"template"`
	Spawn    SpawnConfig     `yaml:"spawn"`
	Player   PlayerConfig    `yaml:"player"`
	Spawners []SpawnerConfig `yaml:"spawners"`
}

type TemplateConfig struct {
	MoveSpeed       float64 `yaml:"move_speed"`
	EscapeSpeed     float64 `yaml:"escape_speed"`
	DetectionRadius float64 `yaml:"detection_radius"`
	EscapeThreshold float64 `yaml:"escape_threshold"`
	DeathDuration   float64 `yaml:"death_duration"`
}

type SpawnConfig struct {
	IntervalMin float64 `yaml:"interval_min"`
	IntervalMax float64 `yaml:"interval_max"`
	Radius      float64 `yaml:"radius"`
	WanderMin   float64 `yaml:"wander_min"`
	WanderMax   float64 `yaml:"wander_max"`
}

type PlayerConfig struct {
	MaxSpeed      float64 `yaml:"max_speed"`
	Acceleration  float64 `yaml:"acceleration"`
	Deceleration  float64 `yaml:"deceleration"`
	RotationSpeed float64 `yaml:"rotation_speed"`
}

type SpawnerConfig struct {
	Template string     `yaml:"template"`
	Position [3]float64 `yaml:"position"`
	Timer    float64    `yaml:"timer"`
	Active   *bool      `yaml:"active"`
}

// DefaultConfig returns the stock tuning: one active spawner at the origin.
func DefaultConfig() Config {
	return Config{
		TickRateHz: 60,
		LogLevel:   "info",
		Template: TemplateConfig{
			MoveSpeed:       3,
			EscapeSpeed:     6,
			DetectionRadius: 5,
			EscapeThreshold: 5,
			DeathDuration:   3,
		},
		Spawn: SpawnConfig{
			IntervalMin: 1,
			IntervalMax: 5,
			Radius:      5,
			WanderMin:   0.5,
			WanderMax:   2,
		},
		Player: PlayerConfig{
			MaxSpeed:      10,
			Acceleration:  5,
			Deceleration:  8,
			RotationSpeed: 180,
		},
		Spawners: []SpawnerConfig{{Timer: 1}},
	}
}

// LoadConfig reads a yaml tuning file on top of DefaultConfig. The file is
// validated against the embedded schema before it is decoded.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return ParseConfig(raw)
}

// ParseConfig is LoadConfig for in-memory yaml.
func ParseConfig(raw []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := validateConfig(raw); err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg.Normalize(), nil
}

func validateConfig(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if doc == nil {
		return nil
	}
	// round-trip through JSON so the validator sees JSON types
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	s, err := configSchema()
	if err != nil {
		return err
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Normalize clamps negative tuning to zero and fills structural defaults.
func (c Config) Normalize() Config {
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.TickRateHz <= 0 {
		c.TickRateHz = 60
	}
	t := &c.Template
	t.MoveSpeed = nonNegative(t.MoveSpeed)
	t.EscapeSpeed = nonNegative(t.EscapeSpeed)
	t.DetectionRadius = nonNegative(t.DetectionRadius)
	t.EscapeThreshold = nonNegative(t.EscapeThreshold)
	t.DeathDuration = nonNegative(t.DeathDuration)

	sp := &c.Spawn
	sp.IntervalMin = nonNegative(sp.IntervalMin)
	sp.IntervalMax = max(nonNegative(sp.IntervalMax), sp.IntervalMin)
	sp.Radius = nonNegative(sp.Radius)
	sp.WanderMin = nonNegative(sp.WanderMin)
	sp.WanderMax = max(nonNegative(sp.WanderMax), sp.WanderMin)

	p := &c.Player
	p.MaxSpeed = nonNegative(p.MaxSpeed)
	p.Acceleration = nonNegative(p.Acceleration)
	p.Deceleration = nonNegative(p.Deceleration)
	p.RotationSpeed = nonNegative(p.RotationSpeed)

	spawners := make([]SpawnerConfig, len(c.Spawners))
	copy(spawners, c.Spawners)
	for i := range spawners {
		if spawners[i].Template == "" {
			spawners[i].Template = string(DefaultTemplate)
		}
	}
	c.Spawners = spawners
	return c
}

// MobTemplate converts the template section into a blueprint.
func (c Config) MobTemplate() Template {
	return Template{
		MoveSpeed:       c.Template.MoveSpeed,
		EscapeSpeed:     c.Template.EscapeSpeed,
		DetectionRadius: c.Template.DetectionRadius,
		EscapeThreshold: c.Template.EscapeThreshold,
		DeathDuration:   c.Template.DeathDuration,
		Heading:         Forward,
	}.Clamped()
}

// SpawnTiming converts the spawn section.
func (c Config) SpawnTiming() SpawnTiming {
	return SpawnTiming{
		IntervalMin: c.Spawn.IntervalMin,
		IntervalMax: c.Spawn.IntervalMax,
		Radius:      c.Spawn.Radius,
		Wander:      WanderTiming{Min: c.Spawn.WanderMin, Max: c.Spawn.WanderMax},
	}
}

// BuildSpawners converts the spawner section.
func (c Config) BuildSpawners() []Spawner {
	out := make([]Spawner, 0, len(c.Spawners))
	for _, sc := range c.Spawners {
		active := true
		if sc.Active != nil {
			active = *sc.Active
		}
		tpl := TemplateRef(sc.Template)
		if tpl == "" {
			tpl = DefaultTemplate
		}
		out = append(out, Spawner{
			Template: tpl,
			Position: mgl64.Vec3(sc.Position),
			Timer:    sc.Timer,
			Active:   active,
		})
	}
	return out
}
