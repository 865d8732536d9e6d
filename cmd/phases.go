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
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rancher-sandbox/tracecct/pkg/model"
	"github.com/rancher-sandbox/tracecct/pkg/reader"
)

// phasesCmd is the `tracecct phases` command.
var phasesCmd = &cobra.Command{
	Use:   "phases <trace>",
	Short: "Count the events of a trace by phase",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := runLogger()
		src, err := reader.Open(args[0], reader.SourceKind(settings.Source))
		if err != nil {
			return err
		}
		defer src.Close()

		batch, err := reader.ReadParallel(cmd.Context(), src, reader.Options{
			Workers:    settings.Workers,
			TailWindow: settings.TailWindow,
			Logger:     logger,
		})
		if errors.Is(err, reader.ErrNotLineDelimited) {
			logger.Infof("%s; reading sequentially", err)
			batch, err = reader.ReadSource(cmd.Context(), src, reader.Options{
				TailWindow: settings.TailWindow,
				Logger:     logger,
			})
		}
		if err != nil {
			return err
		}

		counts := make(map[model.Phase]int)
		for _, event := range batch.Events {
			counts[event.Phase]++
		}
		writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 4, ' ', 0)
		fmt.Fprintf(writer, "PHASE\tGROUP\tCOUNT\n")
		for _, phase := range model.Phases() {
			if counts[phase] > 0 {
				fmt.Fprintf(writer, "%s\t%s\t%s\n", phase, phase.Group(), humanize.Comma(int64(counts[phase])))
			}
		}
		fmt.Fprintf(writer, "total\t\t%s\n", humanize.Comma(int64(len(batch.Events))))
		if batch.Dropped > 0 {
			fmt.Fprintf(writer, "dropped\t\t%s\n", humanize.Comma(int64(batch.Dropped)))
		}
		return writer.Flush()
	},
}

func init() {
	rootCmd.AddCommand(phasesCmd)
}
