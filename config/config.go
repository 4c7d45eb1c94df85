// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jjtimmons/breakend/internal/anchor"
	"github.com/jjtimmons/breakend/internal/pipeline"
	"github.com/jjtimmons/breakend/internal/seq"
	"github.com/spf13/viper"
)

// ErrInvalid is returned for settings that are out of range
var ErrInvalid = errors.New("invalid setting")

// defaults are the settings used when neither a settings file, an env var
// nor a flag sets a value
//
//go:embed settings.yaml
var defaults []byte

// DecomposeConfig is settings for finding repeats
type DecomposeConfig struct {
	// the shortest run, per unit period, that's collapsed into a repeat
	MinRunLength []int `mapstructure:"min-run-length" yaml:"min-run-length"`
}

// MergeConfig is settings for merging overlapping sequences
type MergeConfig struct {
	// the highest Phred quality of a merged base
	MaxQuality int `mapstructure:"max-quality" yaml:"max-quality"`

	// the most mismatches, as a fraction of the compared overlap, before an overlap is discordant
	MaxMismatchFraction float64 `mapstructure:"max-mismatch-fraction" yaml:"max-mismatch-fraction"`

	// the fewest compared bases before the discordance check applies
	MinCheckedOverlap int `mapstructure:"min-checked-overlap" yaml:"min-checked-overlap"`
}

// AnchorConfig is settings for anchoring contigs
type AnchorConfig struct {
	// the largest indel walked through beside an anchor
	MaxIndel int `mapstructure:"max-indel" yaml:"max-indel"`

	// the lowest mapping quality of an anchor
	MinMapQ int `mapstructure:"min-mapq" yaml:"min-mapq"`
}

// PipelineConfig is settings for batches of contigs
type PipelineConfig struct {
	// contigs processed at once, GOMAXPROCS if 0
	Workers int `mapstructure:"workers" yaml:"workers"`

	// fail on the first contig error
	Strict bool `mapstructure:"strict" yaml:"strict"`
}

// Config is the root-level settings struct and is a mix
// of settings available in settings.yaml and those
// available from the command line
type Config struct {
	Decompose DecomposeConfig `mapstructure:"decompose" yaml:"decompose"`
	Merge     MergeConfig     `mapstructure:"merge" yaml:"merge"`
	Anchor    AnchorConfig    `mapstructure:"anchor" yaml:"anchor"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline" yaml:"pipeline"`
	Verbose   bool            `mapstructure:"verbose" yaml:"verbose"`
}

// Setup loads the default settings into viper and then merges in the
// settings file at path. If path is empty, $HOME/.breakend/settings.yaml
// is used when it exists. Env vars prefixed with BREAKEND_ override both,
// eg BREAKEND_ANCHOR_MAX_INDEL.
func Setup(path string) error {
	viper.SetConfigType("yaml")
	if err := viper.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return fmt.Errorf("failed to read default settings: %w", err)
	}

	viper.SetEnvPrefix("BREAKEND")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		path = filepath.Join(home, ".breakend", "settings.yaml")
		if _, err := os.Stat(path); err != nil {
			return nil
		}
	}

	viper.SetConfigFile(path)
	if err := viper.MergeInConfig(); err != nil {
		return fmt.Errorf("failed to read settings %s: %w", path, err)
	}
	return nil
}

// New returns a new Config struct populated by Viper settings
// (from settings files, env vars and command line arguments)
func New() (*Config, error) {
	var c Config
	if err := viper.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to decode settings: %w", err)
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	if len(c.Decompose.MinRunLength) != seq.MaxPeriod {
		return fmt.Errorf("%w: decompose.min-run-length needs %d values, got %d", ErrInvalid, seq.MaxPeriod, len(c.Decompose.MinRunLength))
	}
	for i, l := range c.Decompose.MinRunLength {
		if l < 2*(i+1) {
			return fmt.Errorf("%w: decompose.min-run-length[%d] = %d is shorter than two units", ErrInvalid, i, l)
		}
	}
	if c.Merge.MaxQuality < 1 || c.Merge.MaxQuality > seq.MaxQuality {
		return fmt.Errorf("%w: merge.max-quality %d not in [1, %d]", ErrInvalid, c.Merge.MaxQuality, seq.MaxQuality)
	}
	if c.Merge.MaxMismatchFraction < 0 || c.Merge.MaxMismatchFraction > 1 {
		return fmt.Errorf("%w: merge.max-mismatch-fraction %v not in [0, 1]", ErrInvalid, c.Merge.MaxMismatchFraction)
	}
	if c.Anchor.MaxIndel < 0 {
		return fmt.Errorf("%w: anchor.max-indel %d is negative", ErrInvalid, c.Anchor.MaxIndel)
	}
	return nil
}

// Decomposer returns a repeat decomposer with the configured thresholds.
func (c *Config) Decomposer() seq.Decomposer {
	var d seq.Decomposer
	copy(d.MinRunLength[:], c.Decompose.MinRunLength)
	return d
}

// MergeOptions returns the configured settings for seq.Merge.
func (c *Config) MergeOptions() seq.MergeOptions {
	return seq.MergeOptions{
		MaxQuality:          byte(c.Merge.MaxQuality),
		MaxMismatchFraction: c.Merge.MaxMismatchFraction,
		MinCheckedOverlap:   c.Merge.MinCheckedOverlap,
		Decomposer:          c.Decomposer(),
	}
}

// AnchorOptions returns the configured settings for anchor.Cigar and anchor.Pick.
func (c *Config) AnchorOptions() anchor.Options {
	return anchor.Options{
		MaxIndel: c.Anchor.MaxIndel,
		MinMapQ:  c.Anchor.MinMapQ,
	}
}

// PipelineOptions returns the settings of a batch run.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Anchor:  c.AnchorOptions(),
		Merge:   c.MergeOptions(),
		Workers: c.Pipeline.Workers,
		Strict:  c.Pipeline.Strict,
	}
}
