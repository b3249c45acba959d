package config

import (
	"flag"

	"x-katamari/backend/internal/core/domain/accretion"
)

// Flags переопределения из командной строки
type Flags struct {
	ConfigPath string
	Addr       string
	Debug      bool
	LogFile    string
	Scene      string
	Seed       int64
	CoMotion   string
	Audio      bool
}

// RegisterFlags регистрирует флаги в fs
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.ConfigPath, "config", "", "Path to config file")
	fs.StringVar(&f.Addr, "addr", "", "HTTP/WebSocket listen address")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.LogFile, "log-file", "", "Write logs to this file as well")
	fs.StringVar(&f.Scene, "scene", "", "Path to scene YAML (default: embedded scene)")
	fs.Int64Var(&f.Seed, "seed", 0, "Seed for the random box field")
	fs.StringVar(&f.CoMotion, "comotion", "", "Co-motion strategy: fused or repose")
	fs.BoolVar(&f.Audio, "audio", false, "Play collect/reject cues on the server")
	return f
}

func (f *Flags) apply(cfg *Config) {
	if f.Addr != "" {
		cfg.Server.Addr = f.Addr
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.Scene != "" {
		cfg.Scene.Path = f.Scene
	}
	if f.Seed != 0 {
		cfg.Scene.Seed = f.Seed
	}
	if f.CoMotion != "" {
		cfg.CoMotion.Strategy = accretion.Strategy(f.CoMotion)
	}
	if f.Audio {
		cfg.Audio.Enabled = true
	}
}
