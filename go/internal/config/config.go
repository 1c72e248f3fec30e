package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Vec3 is a plain coordinate triple used by camera and lighting settings.
type Vec3 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// Game is the fully resolved, immutable race configuration. It is produced
// once by Resolve and passed by value to every component.
type Game struct {
	Race      Race      `yaml:"race"`
	Boats     Boats     `yaml:"boats"`
	Waves     Waves     `yaml:"waves"`
	Camera    Camera    `yaml:"camera"`
	Lighting  Lighting  `yaml:"lighting"`
	Scene     Scene     `yaml:"scene"`
	Controls  Controls  `yaml:"controls"`
	Audio     Audio     `yaml:"audio"`
	Quality   Quality   `yaml:"quality"`
	Loop      Loop      `yaml:"loop"`
	Countdown Countdown `yaml:"countdown"`
	Models    Models    `yaml:"models"`
}

type Race struct {
	Distance float64 `yaml:"distance"`
	StartZ   float64 `yaml:"start_z"`
	FinishZ  float64 `yaml:"finish_z"`
}

type Boats struct {
	Speed    float64 `yaml:"speed"` // units per update tick
	Lane1X   float64 `yaml:"lane1_x"`
	Lane2X   float64 `yaml:"lane2_x"`
	BaseY    float64 `yaml:"base_y"`
	Scale    float64 `yaml:"scale"`
	Rotation float64 `yaml:"rotation_amplitude"`
}

type Waves struct {
	Amplitude float64 `yaml:"amplitude"`
	Frequency float64 `yaml:"frequency"`
}

type Camera struct {
	FOV      float64 `yaml:"fov"`
	Near     float64 `yaml:"near"`
	Far      float64 `yaml:"far"`
	Position Vec3    `yaml:"position"`
	OffsetZ  float64 `yaml:"offset_z"`
}

type Lighting struct {
	AmbientColor         uint32  `yaml:"ambient_color"`
	AmbientIntensity     float64 `yaml:"ambient_intensity"`
	DirectionalColor     uint32  `yaml:"directional_color"`
	DirectionalIntensity float64 `yaml:"directional_intensity"`
	DirectionalPosition  Vec3    `yaml:"directional_position"`
}

type Scene struct {
	FogColor   uint32  `yaml:"fog_color"`
	FogNear    float64 `yaml:"fog_near"`
	FogFar     float64 `yaml:"fog_far"`
	ClearColor uint32  `yaml:"clear_color"`
}

type Controls struct {
	Player1Key string `yaml:"player1_key"`
	Player2Key string `yaml:"player2_key"`
}

type Audio struct {
	SplashCooldownMS int     `yaml:"splash_cooldown_ms"`
	MusicVolume      float64 `yaml:"music_volume"`
	EffectsVolume    float64 `yaml:"effects_volume"`
}

// SplashCooldown returns the splash cooldown as a duration.
func (a Audio) SplashCooldown() time.Duration {
	return time.Duration(a.SplashCooldownMS) * time.Millisecond
}

type Quality struct {
	FPSFloor int    `yaml:"fps_floor"`
	Tier     string `yaml:"tier"` // "high" or "low"
}

type Loop struct {
	RefreshHz  int `yaml:"refresh_hz"`
	MaxDeltaMS int `yaml:"max_delta_ms"`
	UIEvery    int `yaml:"ui_every"`
	WorldEvery int `yaml:"world_every"`
}

// MaxDelta returns the tick clamp as a duration.
func (l Loop) MaxDelta() time.Duration {
	return time.Duration(l.MaxDeltaMS) * time.Millisecond
}

// Interval returns the tick period for RefreshHz.
func (l Loop) Interval() time.Duration {
	return time.Second / time.Duration(l.RefreshHz)
}

type Countdown struct {
	From        int           `yaml:"from"`
	Step        time.Duration `yaml:"step"`
	GoHold      time.Duration `yaml:"go_hold"`
	ReadyDelay  time.Duration `yaml:"ready_delay"`
	AutoOnReady bool          `yaml:"auto_on_ready"`
}

type Models struct {
	SnakeBoat string `yaml:"snake_boat"`
	PalmTrees string `yaml:"palm_trees"`
	Water     string `yaml:"water"`
}

const (
	MinSplashCooldownMS = 50
	DefaultFPSFloor     = 30
	TierHigh            = "high"
	TierLow             = "low"
)

// Display shortcut keys. Player bindings may not use them.
const (
	KeyPause   = "p"
	KeyRestart = "r"
	KeyMute    = "m"
	KeyHide    = "h"
)

var ReservedKeys = []string{KeyPause, KeyRestart, KeyMute, KeyHide}

var (
	ErrInvalidTrack = errors.New("finish_z must be greater than start_z")
	ErrInvalidSpeed = errors.New("boat speed must be positive")
	ErrKeyCollision = errors.New("player keys must differ from each other and from the shortcut keys")
)

// Defaults mirrors the values the race was tuned with.
func Defaults() Game {
	return Game{
		Race: Race{Distance: 150, StartZ: -75, FinishZ: 75},
		Boats: Boats{
			Speed:    0.4,
			Lane1X:   -9,
			Lane2X:   10,
			BaseY:    10,
			Scale:    20,
			Rotation: 0.05,
		},
		Waves: Waves{Amplitude: 0.3, Frequency: 0.01},
		Camera: Camera{
			FOV:      60,
			Near:     0.1,
			Far:      900,
			Position: Vec3{X: 0, Y: 70, Z: -20},
			OffsetZ:  -30,
		},
		Lighting: Lighting{
			AmbientColor:         0x404040,
			AmbientIntensity:     0.6,
			DirectionalColor:     0xffffff,
			DirectionalIntensity: 0.8,
			DirectionalPosition:  Vec3{X: 50, Y: 50, Z: 50},
		},
		Scene:    Scene{FogColor: 0x87ceeb, FogNear: 50, FogFar: 200, ClearColor: 0x87ceeb},
		Controls: Controls{Player1Key: "a", Player2Key: "b"},
		Audio:    Audio{SplashCooldownMS: 200, MusicVolume: 0.6, EffectsVolume: 0.8},
		Quality:  Quality{FPSFloor: DefaultFPSFloor, Tier: TierHigh},
		Loop:     Loop{RefreshHz: 60, MaxDeltaMS: 33, UIEvery: 5, WorldEvery: 2},
		Countdown: Countdown{
			From:        3,
			Step:        time.Second,
			GoHold:      800 * time.Millisecond,
			ReadyDelay:  time.Second,
			AutoOnReady: true,
		},
		Models: Models{
			SnakeBoat: "static/models/Kerala_Snake_Boat.glb",
			PalmTrees: "static/models/palm_trees.glb",
			Water:     "static/models/water_animation.glb",
		},
	}
}

// Load reads a YAML tuning file over the defaults and resolves the result.
// An empty path resolves the defaults alone.
func Load(path string) (Game, error) {
	cfg := Defaults()
	if path == "" {
		return Resolve(cfg)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Game{}, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Game{}, fmt.Errorf("failed to parse config: %w", err)
	}

	return Resolve(cfg)
}

// Resolve validates cfg and clamps every bounded option into range.
func Resolve(cfg Game) (Game, error) {
	if cfg.Race.FinishZ <= cfg.Race.StartZ {
		return Game{}, ErrInvalidTrack
	}
	if cfg.Boats.Speed <= 0 {
		return Game{}, ErrInvalidSpeed
	}
	if cfg.Race.Distance <= 0 {
		cfg.Race.Distance = cfg.Race.FinishZ - cfg.Race.StartZ
	}

	if cfg.Audio.SplashCooldownMS < MinSplashCooldownMS {
		cfg.Audio.SplashCooldownMS = MinSplashCooldownMS
	}
	cfg.Audio.MusicVolume = Clamp01(cfg.Audio.MusicVolume)
	cfg.Audio.EffectsVolume = Clamp01(cfg.Audio.EffectsVolume)

	if cfg.Quality.FPSFloor <= 0 {
		cfg.Quality.FPSFloor = DefaultFPSFloor
	}
	if cfg.Quality.Tier != TierLow {
		cfg.Quality.Tier = TierHigh
	}

	if cfg.Loop.RefreshHz <= 0 {
		cfg.Loop.RefreshHz = 60
	}
	if cfg.Loop.MaxDeltaMS <= 0 {
		cfg.Loop.MaxDeltaMS = 33
	}
	if cfg.Loop.UIEvery <= 0 {
		cfg.Loop.UIEvery = 5
	}
	if cfg.Loop.WorldEvery <= 0 {
		cfg.Loop.WorldEvery = 2
	}

	if cfg.Countdown.From <= 0 {
		cfg.Countdown.From = 3
	}
	if cfg.Countdown.Step <= 0 {
		cfg.Countdown.Step = time.Second
	}

	if cfg.Controls.Player1Key == "" {
		cfg.Controls.Player1Key = "a"
	}
	if cfg.Controls.Player2Key == "" {
		cfg.Controls.Player2Key = "b"
	}
	if err := checkKeys(cfg.Controls); err != nil {
		return Game{}, err
	}

	return cfg, nil
}

// checkKeys compares bindings case-insensitively, the way key presses are
// matched.
func checkKeys(c Controls) error {
	if strings.EqualFold(c.Player1Key, c.Player2Key) {
		return fmt.Errorf("%w: both players use %q", ErrKeyCollision, c.Player1Key)
	}
	for _, key := range []string{c.Player1Key, c.Player2Key} {
		for _, reserved := range ReservedKeys {
			if strings.EqualFold(key, reserved) {
				return fmt.Errorf("%w: %q is a shortcut", ErrKeyCollision, key)
			}
		}
	}
	return nil
}

// Clamp01 bounds v to [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
