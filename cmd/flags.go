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

	"github.com/spf13/pflag"
	"github.com/wentaojin/dbload/database"
	"github.com/wentaojin/dbload/database/mysql"
	"github.com/wentaojin/dbload/database/sqlite"
	"github.com/wentaojin/dbload/pkg/config"
	"github.com/wentaojin/dbload/utils/stringutil"
)

// connectionFlags are shared by the commands talking to the load target
type connectionFlags struct {
	configFile  string
	driver      string
	host        string
	port        uint64
	user        string
	password    string
	database    string
	charset     string
	params      string
	engine      string
	table       string
	sqlitePath  string
	askPassword bool
	drop        bool
}

func (c *connectionFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&c.configFile, "config", "", "toml or yaml config file, flags explicitly set override it")
	fs.StringVar(&c.driver, "driver", config.DriverMySQL, "target driver: mysql or sqlite")
	fs.StringVar(&c.host, "host", config.DefaultHost, "MySQL host")
	fs.Uint64Var(&c.port, "port", config.DefaultPort, "MySQL port (ProxySQL)")
	fs.StringVar(&c.user, "user", config.DefaultUser, "MySQL user")
	fs.StringVar(&c.password, "password", config.DefaultPassword, "MySQL password")
	fs.StringVar(&c.database, "database", config.DefaultDatabase, "MySQL database")
	fs.StringVar(&c.charset, "charset", config.DefaultCharset, "MySQL connection charset")
	fs.StringVar(&c.params, "params", "", "extra MySQL connection params, e.g. tls=skip-verify&readTimeout=30s")
	fs.StringVar(&c.engine, "engine", config.DefaultEngine, "storage engine of the created table, empty uses the server default")
	fs.StringVar(&c.table, "table", config.DefaultTable, "target table")
	fs.StringVar(&c.sqlitePath, "sqlite-path", config.DefaultSqlitePath, "sqlite target database file")
	fs.BoolVar(&c.askPassword, "ask-password", false, "prompt for the MySQL password")
	fs.BoolVar(&c.drop, "drop", false, "drop the target table before creating it")
}

// load builds the run config: defaults, then the config file, then the flags explicitly set
func (c *connectionFlags) load(fs *pflag.FlagSet) (*config.RunConfig, error) {
	cfg := config.Default()
	if c.configFile != "" {
		if err := config.LoadFile(c.configFile, cfg); err != nil {
			return nil, err
		}
	}

	conn := &cfg.Connection
	setString(fs, "driver", &conn.Driver, c.driver)
	setString(fs, "host", &conn.Host, c.host)
	if fs.Changed("port") {
		conn.Port = c.port
	}
	setString(fs, "user", &conn.User, c.user)
	setString(fs, "password", &conn.Password, c.password)
	setString(fs, "database", &conn.Database, c.database)
	setString(fs, "charset", &conn.Charset, c.charset)
	setString(fs, "params", &conn.Params, c.params)
	setString(fs, "engine", &conn.Engine, c.engine)
	setString(fs, "table", &conn.Table, c.table)
	setString(fs, "sqlite-path", &conn.SqlitePath, c.sqlitePath)

	if c.askPassword {
		conn.Password = stringutil.PromptForPassword("Enter password for %s@%s: ", conn.User, conn.Host)
	}
	return cfg, nil
}

func setString(fs *pflag.FlagSet, name string, dst *string, val string) {
	if fs.Changed(name) {
		*dst = val
	}
}

func setInt(fs *pflag.FlagSet, name string, dst *int, val int) {
	if fs.Changed(name) {
		*dst = val
	}
}

// clusterConfig turns the connection settings into the target connector config
func clusterConfig(conn *config.Connection) (*database.ClusterConfig, error) {
	switch conn.Driver {
	case config.DriverMySQL:
		dsn, err := mysql.BuildDatabaseDSN(conn.User, conn.Password, conn.Host, conn.Port, conn.Database, conn.Charset, conn.Params)
		if err != nil {
			return nil, err
		}
		return &database.ClusterConfig{DbType: database.DatabaseTypeMySQL, DSN: dsn}, nil
	case config.DriverSqlite:
		return &database.ClusterConfig{DbType: database.DatabaseTypeSqlite, DSN: sqlite.BuildTargetDSN(conn.SqlitePath)}, nil
	default:
		return nil, fmt.Errorf("unsupported driver [%s], expect mysql or sqlite", conn.Driver)
	}
}
