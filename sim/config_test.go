package sim

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigOverridesDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
seed: 7
workers: 3
log_level: debug
template:
  move_speed: 4.5
spawn:
  radius: 12
spawners:
  - position: [1, 0, 2]
    timer: 0.5
  - template: mob
    position: [-3, 0, 0]
    active: false
`))
	require.NoError(t, err)

	assert.Equal(t, uint64(7), cfg.Seed)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 4.5, cfg.Template.MoveSpeed)
	assert.Equal(t, 6.0, cfg.Template.EscapeSpeed, "untouched keys keep defaults")
	assert.Equal(t, 12.0, cfg.Spawn.Radius)

	sps := cfg.BuildSpawners()
	require.Len(t, sps, 2)
	assert.Equal(t, DefaultTemplate, sps[0].Template)
	assert.Equal(t, mgl64.Vec3{1, 0, 2}, sps[0].Position)
	assert.Equal(t, 0.5, sps[0].Timer)
	assert.True(t, sps[0].Active)
	assert.False(t, sps[1].Active)
}

func TestParseConfigRejectsSchemaViolations(t *testing.T) {
	cases := map[string]string{
		"unknown key":     "speed: 3\n",
		"bad log level":   "log_level: loud\n",
		"short position":  "spawners:\n  - position: [1, 2]\n",
		"missing pos":     "spawners:\n  - timer: 1\n",
		"string number":   "template:\n  move_speed: fast\n",
		"negative seed":   "seed: -1\n",
		"malformed yaml":  "template: [\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(doc))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestParseConfigEmptyDocumentIsDefault(t *testing.T) {
	cfg, err := ParseConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Template, cfg.Template)
	assert.Len(t, cfg.Spawners, 1)
}

func TestNormalizeClampsNegativeTuning(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 0
	cfg.Template.MoveSpeed = -1
	cfg.Template.DetectionRadius = -5
	cfg.Spawn.IntervalMin = 4
	cfg.Spawn.IntervalMax = 2
	cfg.Player.MaxSpeed = -3

	n := cfg.Normalize()
	assert.Equal(t, runtime.GOMAXPROCS(0), n.Workers)
	assert.Zero(t, n.Template.MoveSpeed)
	assert.Zero(t, n.Template.DetectionRadius)
	assert.Equal(t, 4.0, n.Spawn.IntervalMax)
	assert.Zero(t, n.Player.MaxSpeed)
	assert.Equal(t, string(DefaultTemplate), n.Spawners[0].Template)
	assert.Equal(t, -1.0, cfg.Template.MoveSpeed, "receiver is not modified")
}

func TestLoadConfigReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tick_rate_hz: 30\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.TickRateHz)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMobTemplateHeadsForward(t *testing.T) {
	tpl := DefaultConfig().MobTemplate()
	a := tpl.Instantiate(DefaultTemplate, Pose{Orientation: rotateY(mgl64.DegToRad(90))})
	assertVecNear(t, mgl64.Vec3{1, 0, 0}, a.Heading, 1e-9)
	assert.Equal(t, Wandering, a.State)
	assert.Equal(t, 3.0, a.DeathTimer)
}

func TestShippedConfigIsValid(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "configs", "mobsim.yaml"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1337), cfg.Seed)
	assert.Len(t, cfg.BuildSpawners(), 2)
}
