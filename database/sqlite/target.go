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
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MaxPlaceholders stays under SQLITE_MAX_VARIABLE_NUMBER (32766 since sqlite 3.32)
const MaxPlaceholders = 32000

// Target is a local sqlite file used as the load target, handy for dry runs without a cluster
type Target struct {
	DB *sql.DB
	gm *gorm.DB
}

// BuildTargetDSN enables WAL and a busy timeout so that several connections can write the same file
func BuildTargetDSN(path string) string {
	if strings.HasPrefix(path, "file:") || strings.Contains(path, "?") {
		return path
	}
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", path)
}

func NewTarget(ctx context.Context, dsn string, maxOpenConns int) (*Target, error) {
	gm, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("error on open sqlite database [%s]: %v", dsn, err)
	}
	sqlDB, err := gm.DB()
	if err != nil {
		return nil, err
	}
	if maxOpenConns <= 0 {
		maxOpenConns = 1
	}
	sqlDB.SetMaxIdleConns(maxOpenConns)
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping the sqlite database error: [%s]", err)
	}
	return &Target{DB: sqlDB, gm: gm}, nil
}

func (t *Target) GetDatabase() interface{} {
	return t
}

func (t *Target) CloseDatabase() error {
	return t.DB.Close()
}

func (t *Target) Conn(ctx context.Context) (*sql.Conn, error) {
	return t.DB.Conn(ctx)
}

func (t *Target) MaxPlaceholders() int {
	return MaxPlaceholders
}

// CreateTableSQL returns the DDL statements of the message relation, the storage engine is ignored
func CreateTableSQL(table string) []string {
	return []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s` (\n"+
			"  `id` INTEGER PRIMARY KEY AUTOINCREMENT,\n"+
			"  `message_id` VARCHAR(36) NOT NULL,\n"+
			"  `sender` VARCHAR(20) NOT NULL,\n"+
			"  `recipient` VARCHAR(20) NOT NULL,\n"+
			"  `message_text` VARCHAR(160) NOT NULL,\n"+
			"  `timestamp` DATETIME NOT NULL,\n"+
			"  `status` TINYINT NOT NULL\n"+
			")", table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS `idx_%s_sender` ON `%s` (`sender`)", table, table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS `idx_%s_recipient` ON `%s` (`recipient`)", table, table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS `idx_%s_timestamp` ON `%s` (`timestamp`)", table, table),
	}
}

func (t *Target) Provision(ctx context.Context, table, engine string, drop bool) error {
	var stmts []string
	if drop {
		stmts = append(stmts, fmt.Sprintf("DROP TABLE IF EXISTS `%s`", table))
	}
	stmts = append(stmts, CreateTableSQL(table)...)
	for _, s := range stmts {
		if _, err := t.DB.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("exec sql: [%v], error: %v", s, err)
		}
	}
	return nil
}
