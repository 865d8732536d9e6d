/*
Copyright © 2026 SUSE LLC
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at
    http://www.apache.org/licenses/LICENSE-2.0
Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rancher-sandbox/tracecct/pkg/config"
	"github.com/rancher-sandbox/tracecct/pkg/logging"
	"github.com/rancher-sandbox/tracecct/pkg/pipeline"
	"github.com/rancher-sandbox/tracecct/pkg/reader"
	"github.com/rancher-sandbox/tracecct/pkg/report"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	t.Parallel()
	conf := config.Default()
	require.NoError(t, conf.Validate())
	assert.Equal(t, string(pipeline.StrategyBucketPerChunk), conf.Strategy)
	assert.True(t, conf.Normalize)
	assert.False(t, conf.ValidateTrees)
	assert.EqualValues(t, reader.DefaultTailWindow, conf.TailWindow)
}

func TestNewConfig(t *testing.T) {
	t.Parallel()
	t.Run("partial", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, filepath.Join(t.TempDir(), "config.yaml"), "workers: 3\nstrategy: sequential\nvalidate: true\n")
		conf, err := config.NewConfig(path)
		require.NoError(t, err)
		expected := config.Default()
		expected.Workers = 3
		expected.Strategy = string(pipeline.StrategySequential)
		expected.ValidateTrees = true
		assert.Equal(t, expected, conf)
	})
	t.Run("unknown key", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, filepath.Join(t.TempDir(), "config.yaml"), "threads: 3\n")
		_, err := config.NewConfig(path)
		assert.Error(t, err)
	})
	t.Run("invalid strategy", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, filepath.Join(t.TempDir(), "config.yaml"), "strategy: magic\n")
		_, err := config.NewConfig(path)
		assert.ErrorIs(t, err, config.ErrInvalidStrategy)
	})
	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		_, err := config.NewConfig(filepath.Join(t.TempDir(), "config.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()
	testCases := map[string]func(*config.Config){
		"strategy":    func(c *config.Config) { c.Strategy = "fast" },
		"source":      func(c *config.Config) { c.Source = "tape" },
		"format":      func(c *config.Config) { c.Format = "xml" },
		"workers":     func(c *config.Config) { c.Workers = -1 },
		"tail window": func(c *config.Config) { c.TailWindow = -1 },
	}
	for name, modify := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			conf := config.Default()
			modify(conf)
			assert.Error(t, conf.Validate())
		})
	}
	conf := config.Default()
	conf.Format = "xml"
	assert.ErrorIs(t, conf.Validate(), report.ErrUnknownFormat)
}

// The tests below change the environment, so they cannot run in parallel.

func TestLoadPrecedence(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "tracecct.yaml"),
		"workers: 2\nstrategy: read-then-bucket\nformat: json\ntail-window: 4096\n")
	t.Setenv("TRACECCT_TAIL_WINDOW", "1024")
	t.Setenv("TRACECCT_SOURCE", "mmap")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int(config.KeyWorkers, 0, "")
	flags.String(config.KeyConfig, "", "")
	v := viper.New()
	require.NoError(t, v.BindPFlags(flags))
	require.NoError(t, flags.Parse([]string{"--config", path, "--workers=6"}))

	conf, err := config.Load(v)
	require.NoError(t, err)
	assert.Equal(t, 6, conf.Workers, "flags override the file")
	assert.Equal(t, string(pipeline.StrategyReadThenBucket), conf.Strategy, "the file overrides defaults")
	assert.Equal(t, string(report.FormatJSON), conf.Format)
	assert.EqualValues(t, 1024, conf.TailWindow, "the environment overrides the file")
	assert.Equal(t, string(reader.SourceMmap), conf.Source)
	assert.True(t, conf.Normalize, "defaults apply")

	options := conf.PipelineOptions(logging.Discard)
	assert.Equal(t, pipeline.Options{
		Workers:    6,
		Strategy:   pipeline.StrategyReadThenBucket,
		Source:     reader.SourceMmap,
		TailWindow: 1024,
		Normalize:  true,
		Logger:     logging.Discard,
	}, options)
}

func TestLoadSearchesXDG(t *testing.T) {
	home := t.TempDir()
	writeFile(t, filepath.Join(home, "tracecct", "config.yaml"), "strategy: sequential\n")
	// Registered first so that it runs after the environment is restored.
	t.Cleanup(xdg.Reload)
	t.Setenv("XDG_CONFIG_HOME", home)
	xdg.Reload()

	conf, err := config.Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, string(pipeline.StrategySequential), conf.Strategy)
}

func TestLoadErrors(t *testing.T) {
	v := viper.New()
	v.Set(config.KeyConfig, filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := config.Load(v)
	assert.Error(t, err)

	t.Setenv("TRACECCT_STRATEGY", "magic")
	_, err = config.Load(viper.New())
	assert.ErrorIs(t, err, config.ErrInvalidStrategy)
}
