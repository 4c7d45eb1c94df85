package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/jjtimmons/breakend/internal/anchor"
	"github.com/jjtimmons/breakend/internal/seq"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reset clears viper and points HOME at an empty dir so a user's own
// settings file isn't read
func reset(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Setenv("HOME", t.TempDir())
	t.Cleanup(viper.Reset)
}

func Test_New_defaults(t *testing.T) {
	reset(t)
	require.NoError(t, Setup(""))

	c, err := New()
	require.NoError(t, err)

	if got := c.Decomposer(); !reflect.DeepEqual(got, seq.NewDecomposer()) {
		t.Errorf("Config.Decomposer() = %v, want %v", got, seq.NewDecomposer())
	}
	if got := c.MergeOptions(); !reflect.DeepEqual(got, seq.DefaultMergeOptions()) {
		t.Errorf("Config.MergeOptions() = %v, want %v", got, seq.DefaultMergeOptions())
	}
	if got := c.AnchorOptions(); !reflect.DeepEqual(got, anchor.DefaultOptions()) {
		t.Errorf("Config.AnchorOptions() = %v, want %v", got, anchor.DefaultOptions())
	}
	assert.Equal(t, 0, c.Pipeline.Workers)
	assert.False(t, c.Pipeline.Strict)
	assert.False(t, c.Verbose)
}

func Test_Setup_file(t *testing.T) {
	reset(t)

	settings := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(settings, []byte("merge:\n  max-quality: 60\nanchor:\n  max-indel: 5\n"), 0644))
	require.NoError(t, Setup(settings))

	c, err := New()
	require.NoError(t, err)

	assert.Equal(t, 60, c.Merge.MaxQuality)
	assert.Equal(t, 5, c.Anchor.MaxIndel)

	// untouched keys keep their defaults
	assert.Equal(t, 12, c.Merge.MinCheckedOverlap)
	assert.Equal(t, []int{20, 15, 20, 27, 30, 33}, c.Decompose.MinRunLength)
}

func Test_Setup_home(t *testing.T) {
	reset(t)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".breakend"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".breakend", "settings.yaml"), []byte("pipeline:\n  workers: 3\n"), 0644))
	require.NoError(t, Setup(""))

	c, err := New()
	require.NoError(t, err)
	assert.Equal(t, 3, c.Pipeline.Workers)
}

func Test_Setup_missingFile(t *testing.T) {
	reset(t)
	assert.Error(t, Setup(filepath.Join(t.TempDir(), "nope.yaml")))
}

func Test_Setup_env(t *testing.T) {
	reset(t)
	t.Setenv("BREAKEND_ANCHOR_MAX_INDEL", "3")
	t.Setenv("BREAKEND_PIPELINE_STRICT", "true")
	require.NoError(t, Setup(""))

	c, err := New()
	require.NoError(t, err)
	assert.Equal(t, 3, c.Anchor.MaxIndel)
	assert.True(t, c.Pipeline.Strict)
}

func TestConfig_validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Decompose: DecomposeConfig{MinRunLength: []int{20, 15, 20, 27, 30, 33}},
			Merge:     MergeConfig{MaxQuality: 93, MaxMismatchFraction: 0.25, MinCheckedOverlap: 12},
			Anchor:    AnchorConfig{MaxIndel: 10},
		}
	}

	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
	}{
		{
			"defaults",
			func(c *Config) {},
			false,
		},
		{
			"too few run lengths",
			func(c *Config) { c.Decompose.MinRunLength = []int{20, 15} },
			true,
		},
		{
			"run length shorter than two units",
			func(c *Config) { c.Decompose.MinRunLength[2] = 5 },
			true,
		},
		{
			"quality above the Phred ceiling",
			func(c *Config) { c.Merge.MaxQuality = 94 },
			true,
		},
		{
			"zero quality",
			func(c *Config) { c.Merge.MaxQuality = 0 },
			true,
		},
		{
			"mismatch fraction above one",
			func(c *Config) { c.Merge.MaxMismatchFraction = 1.5 },
			true,
		},
		{
			"negative indel",
			func(c *Config) { c.Anchor.MaxIndel = -1 },
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.modify(&c)

			err := c.validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("Config.validate() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestConfig_PipelineOptions(t *testing.T) {
	c := Config{
		Decompose: DecomposeConfig{MinRunLength: []int{10, 12, 14, 16, 18, 20}},
		Merge:     MergeConfig{MaxQuality: 60, MaxMismatchFraction: 0.1, MinCheckedOverlap: 8},
		Anchor:    AnchorConfig{MaxIndel: 4, MinMapQ: 20},
		Pipeline:  PipelineConfig{Workers: 2, Strict: true},
	}

	opts := c.PipelineOptions()
	assert.Equal(t, byte(60), opts.Merge.MaxQuality)
	assert.Equal(t, [seq.MaxPeriod]int{10, 12, 14, 16, 18, 20}, opts.Merge.Decomposer.MinRunLength)
	assert.Equal(t, anchor.Options{MaxIndel: 4, MinMapQ: 20}, opts.Anchor)
	assert.Equal(t, 2, opts.Workers)
	assert.True(t, opts.Strict)
}
