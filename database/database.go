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
package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/wentaojin/dbload/database/mysql"
	"github.com/wentaojin/dbload/database/sqlite"
	"github.com/wentaojin/dbload/logger"
	"github.com/wentaojin/dbload/pkg/errs"
	"github.com/wentaojin/dbload/pkg/writer"
	"go.uber.org/zap"
)

var Connector *DBConnector

const (
	DefaultSqliteMetadataName = "metadata"
	DatabaseTypeSqlite        = "sqlite"
	DatabaseTypeMySQL         = "mysql"
)

var tableNameRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

type Database interface {
	GetDatabase() interface{}
	CloseDatabase() error
}

// Target is a load target able to provision the message relation and hand out dedicated sessions
type Target interface {
	Database
	Conn(ctx context.Context) (*sql.Conn, error)
	Provision(ctx context.Context, table, engine string, drop bool) error
	MaxPlaceholders() int
}

type ClusterConfig struct {
	DbType       string
	DSN          string
	MaxOpenConns int
}

func CreateConnector(ctx context.Context, config *ClusterConfig) (Target, error) {
	switch config.DbType {
	case DatabaseTypeSqlite:
		return sqlite.NewTarget(ctx, config.DSN, config.MaxOpenConns)
	case DatabaseTypeMySQL:
		return mysql.NewDatabase(ctx, config.DSN, config.MaxOpenConns)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.DbType)
	}
}

func ValidateTableName(table string) error {
	if !tableNameRegexp.MatchString(table) {
		return fmt.Errorf("invalid table name [%s], expect letters, digits and underscore", table)
	}
	return nil
}

// Provisioner runs the one-time schema setup over its own connection
type Provisioner struct {
	Config *ClusterConfig
	Table  string
	Engine string
	Drop   bool
}

func (p *Provisioner) Provision(ctx context.Context) error {
	if err := ValidateTableName(p.Table); err != nil {
		return errs.ErrProvisioning.Wrap(err, "provision table failed").WithProperty(errs.ErrPropTable, p.Table)
	}
	cfg := *p.Config
	cfg.MaxOpenConns = 1
	db, err := CreateConnector(ctx, &cfg)
	if err != nil {
		return errs.ErrProvisioning.Wrap(err, "open the provisioning connection failed").WithProperty(errs.ErrPropTable, p.Table)
	}
	defer db.CloseDatabase()

	if err := db.Provision(ctx, p.Table, p.Engine, p.Drop); err != nil {
		return errs.ErrProvisioning.Wrap(err, "create table failed").WithProperty(errs.ErrPropTable, p.Table)
	}

	// CREATE TABLE IF NOT EXISTS keeps an existing table as is, whatever its engine
	if m, ok := db.(*mysql.Database); ok && p.Engine != "" {
		engine, err := m.GetTableEngine(ctx, p.Table)
		if err != nil {
			logger.Warn("check table storage engine failed", zap.String("table", p.Table), zap.Error(err))
		} else if !strings.EqualFold(engine, p.Engine) {
			logger.Warn("table storage engine differs from the requested one",
				zap.String("table", p.Table),
				zap.String("expected", p.Engine),
				zap.String("actual", engine))
		}
	}
	logger.Info("table provisioned", zap.String("table", p.Table), zap.String("driver", p.Config.DbType))
	return nil
}

// WorkerOpener returns an opener giving every worker its own single-connection database handle
func WorkerOpener(config *ClusterConfig, table string) func(ctx context.Context, workerID int) (writer.BatchWriter, error) {
	return func(ctx context.Context, workerID int) (writer.BatchWriter, error) {
		cfg := *config
		cfg.MaxOpenConns = 1
		db, err := CreateConnector(ctx, &cfg)
		if err != nil {
			return nil, errs.ErrConnection.Wrap(err, "worker connect database failed").WithProperty(errs.ErrPropWorkerID, workerID)
		}
		conn, err := db.Conn(ctx)
		if err != nil {
			db.CloseDatabase()
			return nil, errs.ErrConnection.Wrap(err, "worker acquire session failed").WithProperty(errs.ErrPropWorkerID, workerID)
		}
		return writer.NewSQLWriter(db, conn, table, db.MaxPlaceholders(), db.CloseDatabase), nil
	}
}

// DBConnector keeps the named long-lived handles of the process, today only the metadata store
type DBConnector struct {
	dbConns sync.Map // key: name, value: database struct
}

func NewDBConnector() *DBConnector {
	return &DBConnector{}
}

func (dbm *DBConnector) AddDatabase(name string, database Database) {
	dbm.dbConns.Store(name, database)
}

func (dbm *DBConnector) LoadDatabase(name string) (Database, bool) {
	conn, ok := dbm.dbConns.Load(name)
	if ok {
		return conn.(Database), true
	}
	return nil, false
}

// GetMetadata returns the run history store, opening it lazily under dir
func (dbm *DBConnector) GetMetadata(dir string) (*sqlite.Database, error) {
	if dbm == nil {
		return nil, fmt.Errorf("database connector is not initialized")
	}
	if db, ok := dbm.LoadDatabase(DefaultSqliteMetadataName); ok {
		return db.(*sqlite.Database), nil
	}
	db, err := sqlite.NewDatabase(dir)
	if err != nil {
		return nil, err
	}
	dbm.AddDatabase(DefaultSqliteMetadataName, db)
	return db, nil
}

func (dbm *DBConnector) CloseDatabase(name string) error {
	conn, ok := dbm.dbConns.Load(name)
	if !ok {
		return fmt.Errorf("the database [%s] connector not found, not need close database", name)
	}
	if err := conn.(Database).CloseDatabase(); err != nil {
		return err
	}
	dbm.dbConns.Delete(name)
	return nil
}

func (dbm *DBConnector) CloseAll() {
	dbm.dbConns.Range(func(key, value interface{}) bool {
		value.(Database).CloseDatabase()
		dbm.dbConns.Delete(key)
		return true
	})
}
