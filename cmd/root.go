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

// Package cmd expresses the command-line interface.
package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rancher-sandbox/tracecct/pkg/config"
	"github.com/rancher-sandbox/tracecct/pkg/logging"
	"github.com/rancher-sandbox/tracecct/pkg/pipeline"
	"github.com/rancher-sandbox/tracecct/pkg/reader"
)

// settings is loaded before any subcommand runs.
var settings = config.Default()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tracecct",
	Short: "Build calling context trees from Chrome trace files",
	Long: `This command reads traces in the Chrome trace event format and builds one
calling context tree for each thread, async operation, and object of the trace.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity := viper.GetInt("verbose")
		logrus.SetLevel(logrus.InfoLevel + logrus.Level(verbosity))
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

		conf, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		if conf.LogFile != "" {
			if err := logging.SetOutputFile(conf.LogFile, logrus.StandardLogger()); err != nil {
				return err
			}
		}
		settings = conf
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logrus.Error(err)
		stop()
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.Count("verbose", "enable extra logging")
	flags.String(config.KeyConfig, "", "configuration file (default: tracecct/config.yaml in the XDG config directories)")
	flags.String(config.KeyLogFile, "", "write logs to this file")
	flags.Int(config.KeyWorkers, 0, "number of chunks and trees processed at once (default: number of CPUs)")
	flags.String(config.KeyStrategy, string(pipeline.StrategyBucketPerChunk), "ingestion strategy: sequential, read-then-bucket, or bucket-per-chunk")
	flags.String(config.KeySource, string(reader.SourceFile), "how to read the trace: file or mmap")
	cobra.OnInitialize(initConfig)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.AutomaticEnv() // read in environment variables that match
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		logrus.WithError(err).Fatal("Failed to set up flags")
	}
}

// runLogger returns the logger for one pipeline run; every message carries
// the id of the run.
func runLogger() logging.Logger {
	return logrus.WithField("run", uuid.NewString())
}
