// Copyright 2026 Antfly, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/antflydb/anthill"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List supported tasks",
	Long: `List the tasks anthill can dispatch, with their aliases and
default models.

Examples:
  # List supported tasks
  anthill tasks`,
	RunE: runTasks,
}

func init() {
	rootCmd.AddCommand(tasksCmd)
}

func runTasks(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TASK\tKIND\tDEFAULT MODEL\tALIASES")
	for _, task := range anthill.Tasks() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			task.Task, task.Kind, task.DefaultModel, strings.Join(task.Aliases, ", "))
	}
	return w.Flush()
}
