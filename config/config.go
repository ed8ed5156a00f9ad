// Package config loads canonabi settings from TOML.
package config

import (
	"context"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/wippyai/canonabi/call"
	"github.com/wippyai/canonabi/errors"
	"github.com/wippyai/canonabi/memory"
	"github.com/wippyai/canonabi/transcoder"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Memory backends.
const (
	BackendSlice  = "slice"
	BackendWazero = "wazero"
)

// Config holds the tunables of an embedding.
type Config struct {
	MemoryBackend  string
	LogLevel       string
	MaxFlatParams  int
	MaxFlatResults int
	MemoryPages    uint32
}

// fileConfig is the TOML key mapping for Config.
type fileConfig struct {
	MemoryBackend  string `toml:"memory_backend"`
	LogLevel       string `toml:"log_level"`
	MaxFlatParams  int    `toml:"max_flat_params"`
	MaxFlatResults int    `toml:"max_flat_results"`
	MemoryPages    uint32 `toml:"memory_pages"`
}

// Default returns the Canonical ABI limits with a one-page slice memory.
func Default() Config {
	return Config{
		MaxFlatParams:  transcoder.MaxFlatParams,
		MaxFlatResults: transcoder.MaxFlatResults,
		MemoryPages:    1,
		MemoryBackend:  BackendSlice,
		LogLevel:       "info",
	}
}

// Load reads path and overlays the keys it defines onto Default.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "load "+path)
	}

	if meta.IsDefined("max_flat_params") {
		cfg.MaxFlatParams = raw.MaxFlatParams
	}
	if meta.IsDefined("max_flat_results") {
		cfg.MaxFlatResults = raw.MaxFlatResults
	}
	if meta.IsDefined("memory_pages") {
		cfg.MemoryPages = raw.MemoryPages
	}
	if meta.IsDefined("memory_backend") {
		cfg.MemoryBackend = strings.ToLower(strings.TrimSpace(raw.MemoryBackend))
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(raw.LogLevel))
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Detail("unknown key %q in %s", undecoded[0].String(), path).
			Build()
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	if c.MaxFlatParams < 1 {
		return invalid("max_flat_params must be at least 1, got %d", c.MaxFlatParams)
	}
	if c.MaxFlatResults < 1 {
		return invalid("max_flat_results must be at least 1, got %d", c.MaxFlatResults)
	}
	if c.MemoryPages == 0 || c.MemoryPages > memory.MaxPages {
		return invalid("memory_pages must be in 1..%d, got %d", memory.MaxPages, c.MemoryPages)
	}
	switch c.MemoryBackend {
	case BackendSlice, BackendWazero:
	default:
		return invalid("memory_backend must be %q or %q, got %q", BackendSlice, BackendWazero, c.MemoryBackend)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return invalid("log_level %q: %v", c.LogLevel, err)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return errors.New(errors.PhaseConfig, errors.KindInvalidInput).Detail(format, args...).Build()
}

// Level returns the zap level for LogLevel, defaulting to info.
func (c Config) Level() zapcore.Level {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// NewLogger builds a console logger at the configured level.
func (c Config) NewLogger() (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(c.Level())
	zc.DisableStacktrace = true
	return zc.Build()
}

// AdapterOptions returns the call adapter options carrying the flat limits.
func (c Config) AdapterOptions() []call.Option {
	return []call.Option{call.WithLimits(c.MaxFlatParams, c.MaxFlatResults)}
}

// Backing is a linear memory with a bump allocator over it.
type Backing struct {
	Memory    transcoder.Memory
	Allocator *memory.Bump
	close     func(context.Context) error
}

// Close releases the backend; a slice memory needs nothing.
func (b *Backing) Close(ctx context.Context) error {
	if b.close == nil {
		return nil
	}
	return b.close(ctx)
}

// NewMemory creates a memory of MemoryPages pages on the configured backend.
func (c Config) NewMemory(ctx context.Context) (*Backing, error) {
	switch c.MemoryBackend {
	case BackendWazero:
		mod, err := memory.NewWazero(ctx, c.MemoryPages)
		if err != nil {
			return nil, err
		}
		mem := mod.Memory()
		return &Backing{Memory: mem, Allocator: memory.NewBump(mem), close: mod.Close}, nil
	case BackendSlice, "":
		mem := memory.NewLinear(c.MemoryPages)
		return &Backing{Memory: mem, Allocator: memory.NewBump(mem)}, nil
	default:
		return nil, invalid("unknown memory backend %q", c.MemoryBackend)
	}
}
