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

// Package config holds the settings of the tracecct tool.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/rancher-sandbox/tracecct/pkg/logging"
	"github.com/rancher-sandbox/tracecct/pkg/pipeline"
	"github.com/rancher-sandbox/tracecct/pkg/reader"
	"github.com/rancher-sandbox/tracecct/pkg/report"
)

// Keys of the settings, shared by the configuration file, flags, and the
// environment (upper-cased with the TRACECCT_ prefix, dashes as underscores).
const (
	KeyConfig     = "config"
	KeyWorkers    = "workers"
	KeyStrategy   = "strategy"
	KeySource     = "source"
	KeyNormalize  = "normalize"
	KeyValidate   = "validate"
	KeyFormat     = "format"
	KeyTailWindow = "tail-window"
	KeyLogFile    = "log-file"
)

const (
	envPrefix = "TRACECCT"
	// searchPath is looked up in the XDG configuration directories when no
	// configuration file is given.
	searchPath = "tracecct/config.yaml"
)

var ErrInvalidStrategy = errors.New("invalid strategy")

type Config struct {
	Workers   int    `yaml:"workers"`
	Strategy  string `yaml:"strategy"`
	Source    string `yaml:"source"`
	Normalize bool   `yaml:"normalize"`
	// ValidateTrees checks every tree after it is built.
	ValidateTrees bool   `yaml:"validate"`
	Format        string `yaml:"format"`
	TailWindow    int64  `yaml:"tail-window"`
	LogFile       string `yaml:"log-file"`
}

// Default returns the settings used when nothing else is configured.
func Default() *Config {
	return &Config{
		Strategy:   string(pipeline.StrategyBucketPerChunk),
		Source:     string(reader.SourceFile),
		Normalize:  true,
		Format:     string(report.FormatText),
		TailWindow: reader.DefaultTailWindow,
	}
}

// SetDefaults registers the default settings with v.
func SetDefaults(v *viper.Viper) {
	defaults := Default()
	v.SetDefault(KeyWorkers, defaults.Workers)
	v.SetDefault(KeyStrategy, defaults.Strategy)
	v.SetDefault(KeySource, defaults.Source)
	v.SetDefault(KeyNormalize, defaults.Normalize)
	v.SetDefault(KeyValidate, defaults.ValidateTrees)
	v.SetDefault(KeyFormat, defaults.Format)
	v.SetDefault(KeyTailWindow, defaults.TailWindow)
	v.SetDefault(KeyLogFile, defaults.LogFile)
}

// Load reads the settings from v, which may have flags bound to it.  The
// configuration file is the one named by the "config" key, or else the first
// tracecct/config.yaml in the XDG configuration directories, if any.  The
// environment overrides the file, and flags that were set override both.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	path := v.GetString(KeyConfig)
	if path == "" {
		if found, err := xdg.SearchConfigFile(searchPath); err == nil {
			path = found
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	conf := &Config{
		Workers:       v.GetInt(KeyWorkers),
		Strategy:      v.GetString(KeyStrategy),
		Source:        v.GetString(KeySource),
		Normalize:     v.GetBool(KeyNormalize),
		ValidateTrees: v.GetBool(KeyValidate),
		Format:        v.GetString(KeyFormat),
		TailWindow:    v.GetInt64(KeyTailWindow),
		LogFile:       v.GetString(KeyLogFile),
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// NewConfig reads a configuration file on its own; settings it does not
// mention keep their defaults.
func NewConfig(path string) (*Config, error) {
	conf := Default()
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	d.KnownFields(true)
	if err := d.Decode(conf); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// Validate checks that every setting has a usable value.
func (c *Config) Validate() error {
	if !pipeline.Strategy(c.Strategy).Valid() {
		return fmt.Errorf("%w %q, must be one of %v", ErrInvalidStrategy, c.Strategy, pipeline.Strategies())
	}
	switch reader.SourceKind(c.Source) {
	case reader.SourceFile, reader.SourceMmap:
	default:
		return fmt.Errorf("invalid source %q, must be %q or %q", c.Source, reader.SourceFile, reader.SourceMmap)
	}
	if _, err := report.ParseFormat(c.Format); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("invalid worker count %d", c.Workers)
	}
	if c.TailWindow < 0 {
		return fmt.Errorf("invalid tail window %d", c.TailWindow)
	}
	return nil
}

// PipelineOptions returns the pipeline settings.
func (c *Config) PipelineOptions(logger logging.Logger) pipeline.Options {
	return pipeline.Options{
		Workers:    c.Workers,
		Strategy:   pipeline.Strategy(c.Strategy),
		Source:     reader.SourceKind(c.Source),
		TailWindow: c.TailWindow,
		Normalize:  c.Normalize,
		Validate:   c.ValidateTrees,
		Logger:     logger,
	}
}
