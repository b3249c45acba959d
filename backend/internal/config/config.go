// Package config загружает настройки сервера: значения по умолчанию,
// затем YAML-файл, затем флаги командной строки.
package config

import (
	"errors"
	"fmt"
	"time"

	"x-katamari/backend/internal/core/domain/accretion"
	"x-katamari/backend/internal/physics"
	"x-katamari/backend/internal/steering"
)

// Config все настройки процесса
type Config struct {
	Tuning   TuningConfig    `yaml:"tuning"`
	CoMotion CoMotionConfig  `yaml:"comotion"`
	Physics  physics.Config  `yaml:"physics"`
	Steering steering.Config `yaml:"steering"`
	Server   ServerConfig    `yaml:"server"`
	Scene    SceneConfig     `yaml:"scene"`
	Audio    AudioConfig     `yaml:"audio"`
	Logging  LoggingConfig   `yaml:"logging"`
	Ticker   TickerConfig    `yaml:"ticker"`
}

// TuningConfig параметры роста шара
type TuningConfig struct {
	MarginFactor  float64 `yaml:"margin_factor"`
	VolumeDivisor float64 `yaml:"volume_divisor"`
	CreditFactor  float64 `yaml:"credit_factor"`
	BaseMass      float64 `yaml:"base_mass"`
	InitialRadius float64 `yaml:"initial_radius"`
}

// Policy переводит настройки в политику накопления
func (t TuningConfig) Policy() accretion.Policy {
	return accretion.Policy{
		MarginFactor:  t.MarginFactor,
		VolumeDivisor: t.VolumeDivisor,
		CreditFactor:  t.CreditFactor,
		BaseMass:      t.BaseMass,
		InitialRadius: t.InitialRadius,
	}
}

// CoMotionConfig способ удержания поглощенных объектов на шаре
type CoMotionConfig struct {
	Strategy accretion.Strategy `yaml:"strategy"`
}

// ServerConfig настройки WebSocket-сервера
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	StaticDir      string        `yaml:"static_dir"`
	StateInterval  time.Duration `yaml:"state_interval"`
	PingInterval   time.Duration `yaml:"ping_interval"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	MaxMessageSize int64         `yaml:"max_message_size"`
}

// SceneConfig источник объектов сцены
type SceneConfig struct {
	Path        string  `yaml:"path"` // пусто - встроенная сцена
	Seed        int64   `yaml:"seed"`
	RandomBoxes int     `yaml:"random_boxes"`
	FieldRadius float64 `yaml:"field_radius"`
}

// AudioConfig звуковые сигналы
type AudioConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Volume     float64 `yaml:"volume"`
	SampleRate int     `yaml:"sample_rate"`
}

// LoggingConfig настройки логирования
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// TickerConfig частота игрового цикла
type TickerConfig struct {
	TargetTPS    int `yaml:"target_tps"`
	MetricsEvery int `yaml:"metrics_every"` // раз в сколько тиков писать сводку
}

// Default возвращает настройки по умолчанию
func Default() *Config {
	policy := accretion.DefaultPolicy()
	return &Config{
		Tuning: TuningConfig{
			MarginFactor:  policy.MarginFactor,
			VolumeDivisor: policy.VolumeDivisor,
			CreditFactor:  policy.CreditFactor,
			BaseMass:      policy.BaseMass,
			InitialRadius: policy.InitialRadius,
		},
		CoMotion: CoMotionConfig{Strategy: accretion.StrategyFused},
		Physics:  physics.DefaultConfig(),
		Steering: steering.DefaultConfig(),
		Server: ServerConfig{
			Addr:           ":8080",
			StaticDir:      "./dist",
			StateInterval:  50 * time.Millisecond,
			PingInterval:   30 * time.Second,
			WriteTimeout:   10 * time.Second,
			MaxMessageSize: 4096,
		},
		Scene: SceneConfig{
			Seed:        42,
			RandomBoxes: 60,
			FieldRadius: 25,
		},
		Audio: AudioConfig{
			Enabled:    false,
			Volume:     0.3,
			SampleRate: 44100,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Ticker: TickerConfig{
			TargetTPS:    60,
			MetricsEvery: 600,
		},
	}
}

var errInvalid = errors.New("invalid config")

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	if err := c.Tuning.Policy().Validate(); err != nil {
		return fmt.Errorf("tuning: %w", err)
	}
	switch c.CoMotion.Strategy {
	case accretion.StrategyFused, accretion.StrategyRepose:
	default:
		return fmt.Errorf("%w: comotion.strategy %q", errInvalid, c.CoMotion.Strategy)
	}
	if err := c.Physics.Validate(); err != nil {
		return fmt.Errorf("physics: %w", err)
	}
	if c.Steering.CameraSmoothing <= 0 || c.Steering.CameraSmoothing > 1 {
		return fmt.Errorf("%w: steering.camera_smoothing %.3f not in (0,1]", errInvalid, c.Steering.CameraSmoothing)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr is empty", errInvalid)
	}
	if c.Server.StateInterval <= 0 || c.Server.PingInterval <= 0 {
		return fmt.Errorf("%w: server intervals must be positive", errInvalid)
	}
	if c.Scene.RandomBoxes < 0 || c.Scene.FieldRadius <= 0 {
		return fmt.Errorf("%w: scene random field", errInvalid)
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		return fmt.Errorf("%w: audio.volume %.2f not in [0,1]", errInvalid, c.Audio.Volume)
	}
	if c.Ticker.TargetTPS <= 0 {
		return fmt.Errorf("%w: ticker.target_tps must be positive", errInvalid)
	}
	return nil
}
