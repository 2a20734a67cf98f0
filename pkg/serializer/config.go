package serializer

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Config selects and tunes serializers. It is usually read from a YAML
// file:
//
//	serializer: Bin
//	bin:
//	  max_depth: 64
//	  aliased_payloads: false
//	archive:
//	  framed: true
//	  compression: zstd
//	  digest: true
type Config struct {
	// Serializer is the name used when no name is given explicitly.
	Serializer string `yaml:"serializer"`

	Bin BinConfig `yaml:"bin"`

	Archive ArchiveConfig `yaml:"archive"`
}

// BinConfig holds options of the "Bin" serializer.
type BinConfig struct {
	// MaxDepth limits tree nesting. Zero keeps the serializer default.
	MaxDepth int `yaml:"max_depth"`

	// AliasedPayloads makes decoded arrays reference the input bytes.
	AliasedPayloads bool `yaml:"aliased_payloads"`
}

// ArchiveConfig holds options of snapshot archives.
type ArchiveConfig struct {
	// Framed wraps every record in a frame header. Compression and
	// Digest require it.
	Framed bool `yaml:"framed"`

	// Compression is one of "none", "lz4", "zstd" or "bg4_lz4".
	Compression string `yaml:"compression"`

	// Digest stores a BLAKE3 digest of every frame.
	Digest bool `yaml:"digest"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Serializer: "Bin",
		Archive: ArchiveConfig{
			Compression: "none",
		},
	}
}

// LoadFile reads a YAML configuration file on top of Default.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML configuration on top of Default and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if !slices.Contains(Names(), c.Serializer) {
		return fmt.Errorf("%w: %q", ErrUnknownSerializer, c.Serializer)
	}
	if c.Bin.MaxDepth < 0 {
		return fmt.Errorf("bin.max_depth must not be negative, got %d", c.Bin.MaxDepth)
	}
	switch c.Archive.Compression {
	case "", "none":
	case "lz4", "zstd", "bg4_lz4":
		if !c.Archive.Framed {
			return fmt.Errorf("archive.compression %q requires archive.framed", c.Archive.Compression)
		}
	default:
		return fmt.Errorf("unknown archive.compression %q", c.Archive.Compression)
	}
	if c.Archive.Digest && !c.Archive.Framed {
		return fmt.Errorf("archive.digest requires archive.framed")
	}
	return nil
}
