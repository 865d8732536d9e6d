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
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rancher-sandbox/tracecct/pkg/logging"
	"github.com/rancher-sandbox/tracecct/pkg/pipeline"
)

var benchViper = viper.New()

// benchCmd is the `tracecct bench` command.
var benchCmd = &cobra.Command{
	Use:   "bench <trace>...",
	Short: "Time each ingestion strategy on some traces",
	Long: `Builds the trees of each trace with every requested strategy and worker
count, and prints how long reading and building took.  The sequential strategy
always uses a single worker.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var strategies []pipeline.Strategy
		for _, name := range benchViper.GetStringSlice("strategies") {
			strategy := pipeline.Strategy(name)
			if !strategy.Valid() {
				return fmt.Errorf("unknown strategy %q", name)
			}
			strategies = append(strategies, strategy)
		}
		workerCounts := benchViper.GetIntSlice("worker-counts")
		repeat := max(benchViper.GetInt("repeat"), 1)

		writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 4, ' ', 0)
		fmt.Fprintf(writer, "TRACE\tSTRATEGY\tWORKERS\tREAD\tAGGREGATE\tBUILD\tTOTAL\n")
		for _, path := range args {
			for _, strategy := range strategies {
				counts := workerCounts
				if strategy == pipeline.StrategySequential {
					counts = []int{1}
				}
				for _, workers := range counts {
					options := settings.PipelineOptions(logging.Discard)
					options.Strategy = strategy
					options.Workers = workers
					options.Validate = false
					stats, err := bestOf(cmd, path, options, repeat)
					if err != nil {
						return err
					}
					fmt.Fprintf(writer, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n", path, stats.Strategy, stats.Workers,
						round(stats.Duration(pipeline.StageRead)), round(stats.Duration(pipeline.StageAggregate)),
						round(stats.Duration(pipeline.StageBuild)), round(stats.Total()))
				}
			}
		}
		return writer.Flush()
	},
}

// bestOf runs the pipeline repeat times and returns the stats of the fastest
// run.
func bestOf(cmd *cobra.Command, path string, options pipeline.Options, repeat int) (pipeline.Stats, error) {
	var best pipeline.Stats
	for i := range repeat {
		result, err := pipeline.Run(cmd.Context(), path, options)
		if err != nil {
			return pipeline.Stats{}, err
		}
		if i == 0 || result.Stats.Total() < best.Total() {
			best = result.Stats
		}
	}
	return best, nil
}

func round(d time.Duration) time.Duration {
	return d.Round(10 * time.Microsecond)
}

func init() {
	strategies := make([]string, 0, len(pipeline.Strategies()))
	for _, strategy := range pipeline.Strategies() {
		strategies = append(strategies, string(strategy))
	}
	benchCmd.Flags().StringSlice("strategies", strategies, "strategies to time")
	benchCmd.Flags().IntSlice("worker-counts", []int{1, 2, 4, 8}, "worker counts to time the parallel strategies with")
	benchCmd.Flags().Int("repeat", 1, "run each combination this many times and keep the fastest")
	if err := benchViper.BindPFlags(benchCmd.Flags()); err != nil {
		logrus.WithError(err).Fatal("Failed to set up flags")
	}
	rootCmd.AddCommand(benchCmd)
}
