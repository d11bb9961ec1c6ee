/*
Copyright © 2020 Marvin

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

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/wentaojin/dbload/model/report"
	"github.com/wentaojin/dbload/utils/stringutil"
)

type AppHistory struct {
	*App
}

func (a *App) AppHistory() Cmder {
	return &AppHistory{App: a}
}

func (a *AppHistory) Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "run history operation",
		Long:  "Options for listing, showing and deleting the runs saved in the metadata database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		TraverseChildren: true,
		SilenceErrors:    true,
		SilenceUsage:     true,
	}
	return cmd
}

type AppHistoryList struct {
	*AppHistory
	page  uint64
	limit uint64
}

func (a *AppHistory) AppHistoryList() Cmder {
	return &AppHistoryList{AppHistory: a}
}

func (a *AppHistoryList) Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "list the saved runs",
		Long:  "List the saved runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.metadataDB()
			if err != nil {
				return err
			}
			runs, err := db.ListRun(cmd.Context(), a.page, a.limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no run saved yet")
				return nil
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), report.HistoryTable(runs))
			return err
		},
		TraverseChildren: true,
		SilenceErrors:    true,
		SilenceUsage:     true,
	}
	cmd.Flags().Uint64Var(&a.page, "page", 1, "page number, starting at 1")
	cmd.Flags().Uint64Var(&a.limit, "limit", 20, "runs per page")
	return cmd
}

type AppHistoryShow struct {
	*AppHistory
	output string
}

func (a *AppHistory) AppHistoryShow() Cmder {
	return &AppHistoryShow{AppHistory: a}
}

func (a *AppHistoryShow) Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show RUN_ID",
		Short: "show the report of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.metadataDB()
			if err != nil {
				return err
			}
			run, err := db.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if run == nil {
				return fmt.Errorf("the run_id [%s] not found, please check it with history list", args[0])
			}
			return report.FromHistory(run).Print(cmd.OutOrStdout(), a.output)
		},
		TraverseChildren: true,
		SilenceErrors:    true,
		SilenceUsage:     true,
	}
	cmd.Flags().StringVarP(&a.output, "output", "o", report.OutputTable, "report format: table or json")
	return cmd
}

type AppHistoryDelete struct {
	*AppHistory
	force bool
}

func (a *AppHistory) AppHistoryDelete() Cmder {
	return &AppHistoryDelete{AppHistory: a}
}

func (a *AppHistoryDelete) Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete RUN_ID",
		Short: "delete a saved run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.force {
				if err := stringutil.PromptForAnswerOrAbortError(
					"Yes, I know the run will be deleted.",
					"%s", fmt.Sprintf("This operation will delete the run %s from the history.\nAre you sure to continue?", color.HiYellowString(args[0])),
				); err != nil {
					return err
				}
			}
			db, err := a.metadataDB()
			if err != nil {
				return err
			}
			if _, err := db.DeleteRun(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run %s deleted\n", args[0])
			return nil
		},
		TraverseChildren: true,
		SilenceErrors:    true,
		SilenceUsage:     true,
	}
	cmd.Flags().BoolVarP(&a.force, "force", "f", false, "ignore deletion verification and force deletion")
	return cmd
}
