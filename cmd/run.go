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
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/wentaojin/dbload/database"
	"github.com/wentaojin/dbload/database/mysql"
	"github.com/wentaojin/dbload/logger"
	"github.com/wentaojin/dbload/model/monitor"
	"github.com/wentaojin/dbload/model/report"
	"github.com/wentaojin/dbload/pkg/config"
	"github.com/wentaojin/dbload/pkg/coordinator"
	"github.com/wentaojin/dbload/pkg/progress"
	"github.com/wentaojin/dbload/utils/retry"
	"go.uber.org/zap"
)

type AppRun struct {
	*App
	conn connectionFlags

	threads       int
	records       int
	batchSize     int
	maxParallel   int
	retries       int
	retryDelay    time.Duration
	retryMaxDelay time.Duration

	tui           bool
	quietProgress bool
	noHistory     bool
	output        string
	export        string
}

func (a *App) AppRun() Cmder {
	return &AppRun{App: a}
}

func (a *AppRun) Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "run the concurrent batch insert load",
		Long:  "Provision the target table, launch the workers, wait for all of them and report the achieved throughput",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			switch strings.ToLower(a.output) {
			case report.OutputTable, report.OutputJSON:
				return nil
			default:
				return fmt.Errorf("unsupported output format [%s], expect table or json", a.output)
			}
		},
		RunE:             a.RunE,
		TraverseChildren: true,
		SilenceErrors:    true,
		SilenceUsage:     true,
	}
	a.conn.register(cmd.Flags())
	cmd.Flags().IntVar(&a.threads, "threads", config.DefaultWorkers, "number of concurrent workers")
	cmd.Flags().IntVar(&a.records, "records", config.DefaultRecordsPerWorker, "records per worker")
	cmd.Flags().IntVar(&a.batchSize, "batch-size", config.DefaultBatchSize, "batch size for inserts")
	cmd.Flags().IntVar(&a.maxParallel, "max-parallel", 0, "maximum workers running at the same time, 0 runs all of them at once")
	cmd.Flags().IntVar(&a.retries, "retries", 0, "retries of a failed batch on transient errors, 0 fails the worker at once")
	cmd.Flags().DurationVar(&a.retryDelay, "retry-delay", 300*time.Millisecond, "delay before the first retry, doubled on each retry")
	cmd.Flags().DurationVar(&a.retryMaxDelay, "retry-max-delay", 5*time.Second, "upper bound of the retry delay")
	cmd.Flags().BoolVar(&a.tui, "tui", false, "show a progress bar per worker instead of log lines")
	cmd.Flags().BoolVar(&a.quietProgress, "quiet-progress", false, "only log worker completion, not every batch")
	cmd.Flags().BoolVar(&a.noHistory, "no-history", false, "do not save the run into the metadata history")
	cmd.Flags().StringVarP(&a.output, "output", "o", report.OutputTable, "report format: table or json")
	cmd.Flags().StringVar(&a.export, "export", "", "also write the report to this xlsx file")
	return cmd
}

// loadConfig merges defaults, the config file and the flags explicitly set, then validates
func (a *AppRun) loadConfig(fs *pflag.FlagSet) (*config.RunConfig, error) {
	cfg, err := a.conn.load(fs)
	if err != nil {
		return nil, err
	}
	setInt(fs, "threads", &cfg.Workers, a.threads)
	setInt(fs, "records", &cfg.RecordsPerWorker, a.records)
	setInt(fs, "batch-size", &cfg.BatchSize, a.batchSize)
	setInt(fs, "max-parallel", &cfg.MaxParallel, a.maxParallel)
	setInt(fs, "retries", &cfg.Retry.MaxRetries, a.retries)
	if fs.Changed("retry-delay") {
		cfg.Retry.Delay = a.retryDelay
	}
	if fs.Changed("retry-max-delay") {
		cfg.Retry.MaxDelay = a.retryMaxDelay
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := database.ValidateTableName(cfg.Connection.Table); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a *AppRun) RunE(cmd *cobra.Command, args []string) error {
	cfg, err := a.loadConfig(cmd.Flags())
	if err != nil {
		return err
	}
	cc, err := clusterConfig(&cfg.Connection)
	if err != nil {
		return err
	}
	logger.Debug("run config", zap.String("config", cfg.String()))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	bus := progress.NewBus()
	var ui *monitor.TUI
	if a.tui {
		if err := a.initLogger(false); err != nil {
			return err
		}
		ui = monitor.NewTUI(cfg.Workers, cfg.RecordsPerWorker, cancel)
		if err := ui.Attach(bus); err != nil {
			return err
		}
		ui.Start()
	} else {
		if err := monitor.NewLogSink(cfg.Workers, a.quietProgress).Attach(bus); err != nil {
			return err
		}
	}

	co := &coordinator.Coordinator{
		Config: cfg,
		Provisioner: &database.Provisioner{
			Config: cc,
			Table:  cfg.Connection.Table,
			Engine: engineOf(&cfg.Connection),
			Drop:   a.conn.drop,
		},
		Open:      database.WorkerOpener(cc, cfg.Connection.Table),
		Retry:     retry.NewPolicy(cfg.Retry.MaxRetries, cfg.Retry.Delay, cfg.Retry.MaxDelay, mysql.IsRetryable),
		Publisher: bus,
	}
	agg, err := co.Run(ctx)
	bus.Wait()
	if ui != nil {
		uiErr := ui.Stop()
		if err := a.initLogger(true); err != nil {
			return err
		}
		if uiErr != nil {
			logger.Warn("progress tui exited with error", zap.Error(uiErr))
		}
	}
	if err != nil {
		return err
	}

	rep := report.New(uuid.NewString(), cfg, agg)
	if err := rep.Print(cmd.OutOrStdout(), a.output); err != nil {
		return err
	}
	if a.export != "" {
		if err := rep.Export(a.export); err != nil {
			return err
		}
		logger.Info("report exported", zap.String("file", a.export))
	}
	if !a.noHistory {
		db, err := a.metadataDB()
		if err != nil {
			return err
		}
		if _, err := db.CreateRun(context.Background(), rep.History()); err != nil {
			return err
		}
		logger.Info("run saved", zap.String("run_id", rep.Summary.RunID))
	}
	if ctx.Err() != nil {
		return fmt.Errorf("run interrupted, %d of %d records written", agg.TotalRecords, agg.TargetRecords)
	}
	return nil
}

// engineOf drops the storage engine for sqlite, which has none
func engineOf(conn *config.Connection) string {
	if conn.Driver == config.DriverSqlite {
		return ""
	}
	return conn.Engine
}
