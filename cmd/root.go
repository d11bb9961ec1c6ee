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
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/wentaojin/dbload/database"
	"github.com/wentaojin/dbload/database/sqlite"
	"github.com/wentaojin/dbload/logger"
	"github.com/wentaojin/dbload/utils/stringutil"
	"github.com/wentaojin/dbload/utils/version"
)

func init() {
	database.Connector = database.NewDBConnector()
}

type App struct {
	metadata string
	logLevel string
	logFile  string
	version  bool

	// metadataDir is metadata with the home directory expanded, set before any sub command runs
	metadataDir string
}

/*
Sub commands do not define PersistentPreRunE, the root hook prepares the metadata directory
and the global logger for all of them.
*/
func (a *App) Cmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dbload",
		Short: "concurrent batch insert load generator",
		Long:  "dbload (dbload) is a CLI that loads synthetic message records into a MySQL NDB cluster, or a local sqlite file, with concurrent batch inserts and reports the achieved throughput.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			dir, err := homedir.Expand(a.metadata)
			if err != nil {
				return err
			}
			if err = stringutil.PathNotExistOrCreate(dir); err != nil {
				return err
			}
			a.metadataDir = dir
			return a.initLogger(true)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.version {
				fmt.Println(version.GetRawVersionInfo())
				return nil
			}
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().StringVarP(&a.metadata, "metadata", "M", "~/.dbload", "location of the dbload metadata database keeping the run history")
	rootCmd.PersistentFlags().StringVarP(&a.logLevel, "log-level", "L", logger.DefaultLogLevel, "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&a.logFile, "log-file", "", "write logs to a rotated file instead of the console")
	rootCmd.Flags().BoolVarP(&a.version, "version", "v", false, "version for the dbload application")

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		fgGreen := color.New(color.FgGreen)
		printASCIILogo(fgGreen)
		fmt.Println(fgGreen.Sprint(cmd.UsageString()))
	})
	return rootCmd
}

// initLogger installs the global logger, stdout false silences the console while the TUI draws
func (a *App) initLogger(stdout bool) error {
	return logger.NewLogger(&logger.Config{
		Level:  a.logLevel,
		File:   a.logFile,
		Stdout: stdout,
	})
}

func (a *App) metadataDB() (*sqlite.Database, error) {
	return database.Connector.GetMetadata(a.metadataDir)
}

func printASCIILogo(c *color.Color) {
	newColor := c.SprintFunc()
	fmt.Println(newColor(`     ____  ____  __                    __`))
	fmt.Println(newColor(`    / __ \/ __ )/ /   ____  ____ _____/ /`))
	fmt.Println(newColor(`   / / / / __  / /   / __ \/ __ '/ __  / `))
	fmt.Println(newColor(`  / /_/ / /_/ / /___/ /_/ / /_/ / /_/ /  `))
	fmt.Println(newColor(` /_____/_____/_____/\____/\__,_/\__,_/   `))
}
