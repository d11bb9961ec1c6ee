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
	"github.com/spf13/cobra"
	"github.com/wentaojin/dbload/database"
)

type AppProvision struct {
	*App
	conn connectionFlags
}

func (a *App) AppProvision() Cmder {
	return &AppProvision{App: a}
}

func (a *AppProvision) Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provision",
		Short: "create the target table",
		Long:  "Create the target table and its indexes when missing, without loading any record",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.conn.load(cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			cc, err := clusterConfig(&cfg.Connection)
			if err != nil {
				return err
			}
			p := &database.Provisioner{
				Config: cc,
				Table:  cfg.Connection.Table,
				Engine: engineOf(&cfg.Connection),
				Drop:   a.conn.drop,
			}
			return p.Provision(cmd.Context())
		},
		TraverseChildren: true,
		SilenceErrors:    true,
		SilenceUsage:     true,
	}
	a.conn.register(cmd.Flags())
	return cmd
}
