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

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/rancher-sandbox/tracecct/pkg/pipeline"
)

// validateCmd is the `tracecct validate` command.
var validateCmd = &cobra.Command{
	Use:   "validate <trace>",
	Short: "Check that the trees of a trace mirror the nesting of its events",
	Long: `Builds the calling context trees of a trace and checks that a node is an
ancestor of every node whose interval it covers.  Exits with an error if any
tree is not valid.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := runLogger()
		options := settings.PipelineOptions(logger)
		options.Validate = true
		result, err := pipeline.Run(cmd.Context(), args[0], options)
		if err != nil {
			return err
		}
		logSummary(logger, args[0], result)
		if result.Violations == nil {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: %d trees are valid\n", args[0], result.Forest.Len())
			return err
		}

		var merr *multierror.Error
		count := 1
		if errors.As(result.Violations, &merr) {
			count = len(merr.WrappedErrors())
			for _, violation := range merr.WrappedErrors() {
				fmt.Fprintln(cmd.OutOrStdout(), violation)
			}
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), result.Violations)
		}
		return fmt.Errorf("%s: found %d violations", args[0], count)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
