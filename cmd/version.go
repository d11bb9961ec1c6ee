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

	"github.com/spf13/cobra"
	"github.com/wentaojin/dbload/utils/version"
)

type AppVersion struct {
	*App
}

func (a *App) AppVersion() Cmder {
	return &AppVersion{App: a}
}

func (a *AppVersion) Cmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the dbload version",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.GetRawVersionInfo())
			return err
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}
}
