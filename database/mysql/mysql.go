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
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/wentaojin/dbload/utils/stringutil"
)

const (
	// MaxPlaceholders is the prepared statement placeholder limit of the mysql protocol
	MaxPlaceholders = 65535

	DefaultEngine  = "NDBCLUSTER"
	DefaultCharset = "utf8mb4"
	DefaultTimeout = 30 * time.Second
)

type Database struct {
	DB *sql.DB
}

// NewDatabase opens the pool and checks it, maxOpenConns 1 gives a single dedicated session
func NewDatabase(ctx context.Context, dsn string, maxOpenConns int) (*Database, error) {
	sqlDB, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("error on open mysql database connection: %v", err)
	}
	if maxOpenConns <= 0 {
		maxOpenConns = 1
	}

	sqlDB.SetMaxIdleConns(maxOpenConns)
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping the mysql database error: [%s]", err)
	}
	return &Database{DB: sqlDB}, nil
}

// BuildDatabaseDSN renders the go-sql-driver dsn, connParams is a query string like "tls=skip-verify&readTimeout=30s".
// Driver options in connParams land in their config fields, the rest become session variables.
func BuildDatabaseDSN(username, password, host string, port uint64, dbName, charset, connParams string) (string, error) {
	cfg := mysql.NewConfig()
	cfg.User = username
	cfg.Passwd = password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(host, strconv.FormatUint(port, 10))
	cfg.DBName = dbName
	cfg.ParseTime = true
	cfg.Loc = time.Local
	cfg.Timeout = DefaultTimeout

	dsn := cfg.FormatDSN()
	params := url.Values{}
	if !strings.EqualFold(charset, "") {
		params.Set("charset", strings.ToLower(charset))
	}
	if connParams != "" {
		values, err := url.ParseQuery(connParams)
		if err != nil {
			return "", fmt.Errorf("parse connect params [%s] failed: %v", connParams, err)
		}
		for k := range values {
			params.Set(k, values.Get(k))
		}
	}
	if len(params) == 0 {
		return dsn, nil
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	parsed, err := mysql.ParseDSN(dsn + sep + params.Encode())
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn failed: %v", err)
	}
	return parsed.FormatDSN(), nil
}

func (d *Database) GetDatabase() interface{} {
	return d
}

func (d *Database) CloseDatabase() error {
	return d.DB.Close()
}

func (d *Database) Conn(ctx context.Context) (*sql.Conn, error) {
	return d.DB.Conn(ctx)
}

func (d *Database) MaxPlaceholders() int {
	return MaxPlaceholders
}

func (d *Database) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.DB.QueryContext(ctx, query, args...)
}

func (d *Database) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.DB.ExecContext(ctx, query, args...)
}

func (d *Database) GeneralQuery(ctx context.Context, query string, args ...any) ([]string, []map[string]string, error) {
	var (
		columns []string
		results []map[string]string
	)

	rows, err := d.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("query sql: [%v], error: %v", query, err)
	}
	defer rows.Close()

	columns, err = rows.Columns()
	if err != nil {
		return columns, results, fmt.Errorf("query rows.Columns failed, sql: [%v], error: %v", query, err)
	}

	values := make([][]byte, len(columns))
	scans := make([]interface{}, len(columns))
	for i := range values {
		scans[i] = &values[i]
	}

	for rows.Next() {
		err = rows.Scan(scans...)
		if err != nil {
			return columns, results, fmt.Errorf("query rows.Scan failed, sql: [%v], error: %v", query, err)
		}

		row := make(map[string]string)
		for k, v := range values {
			if v == nil {
				row[columns[k]] = "NULLABLE"
			} else {
				row[columns[k]] = stringutil.BytesToString(v)
			}
		}
		results = append(results, row)
	}

	if err = rows.Err(); err != nil {
		return columns, results, fmt.Errorf("query rows.Next failed, sql: [%v], error: %v", query, err.Error())
	}
	return columns, results, nil
}
