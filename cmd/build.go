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

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rancher-sandbox/tracecct/pkg/config"
	"github.com/rancher-sandbox/tracecct/pkg/logging"
	"github.com/rancher-sandbox/tracecct/pkg/pipeline"
	"github.com/rancher-sandbox/tracecct/pkg/report"
)

var buildViper = viper.New()

// buildCmd is the `tracecct build` command.
var buildCmd = &cobra.Command{
	Use:   "build <trace>",
	Short: "Build the calling context trees of a trace",
	Long: `Builds the calling context trees of a trace, and writes them out as text,
JSON, or YAML.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := runLogger()
		result, err := pipeline.Run(cmd.Context(), args[0], settings.PipelineOptions(logger))
		if err != nil {
			return err
		}
		logSummary(logger, args[0], result)
		if result.Violations != nil {
			logger.Warnf("%s", result.Violations)
		}

		var output io.Writer = cmd.OutOrStdout()
		if path := buildViper.GetString("output"); path != "" {
			file, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("failed to create output file %s: %w", path, err)
			}
			defer file.Close()
			output = file
		}
		return report.Write(output, result.Forest, report.Format(settings.Format))
	},
}

func logSummary(logger logging.Logger, path string, result *pipeline.Result) {
	stats := result.Stats
	logger.Infof("%s: read %s events (%s), dropped %s records, skipped %s events",
		path, humanize.Comma(int64(stats.Events)), humanize.IBytes(uint64(stats.Bytes)),
		humanize.Comma(int64(stats.Dropped)), humanize.Comma(int64(stats.Skipped)))
	logger.Infof("%s: %d sync, %d async and %d object tasks; %s nodes, %s orphan end events",
		path, stats.Tasks.Sync, stats.Tasks.Async, stats.Tasks.Object,
		humanize.Comma(int64(stats.Nodes)), humanize.Comma(int64(stats.Orphans)))
	for _, stage := range stats.Stages {
		logger.Debugf("%s: %s took %s", path, stage.Stage, stage.Duration)
	}
}

func init() {
	buildCmd.Flags().String(config.KeyFormat, string(report.FormatText), "output format: text, json, or yaml")
	buildCmd.Flags().Bool(config.KeyNormalize, true, "rebase the timestamps of every tree to start at zero")
	buildCmd.Flags().Bool(config.KeyValidate, false, "check every tree after it is built")
	for _, key := range []string{config.KeyFormat, config.KeyNormalize, config.KeyValidate} {
		if err := viper.BindPFlag(key, buildCmd.Flags().Lookup(key)); err != nil {
			logrus.WithError(err).Fatal("Failed to set up flags")
		}
	}
	buildCmd.Flags().StringP("output", "o", "", "write the report to this file instead of standard output")
	if err := buildViper.BindPFlags(buildCmd.Flags()); err != nil {
		logrus.WithError(err).Fatal("Failed to set up flags")
	}
	rootCmd.AddCommand(buildCmd)
}
