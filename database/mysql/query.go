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
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/wentaojin/dbload/pkg/errs"
)

// CreateTableSQL renders the message relation DDL, an empty engine keeps the server default
func CreateTableSQL(table, engine string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS `%s` (\n", table)
	b.WriteString("  `id` BIGINT AUTO_INCREMENT PRIMARY KEY,\n")
	b.WriteString("  `message_id` VARCHAR(36) NOT NULL,\n")
	b.WriteString("  `sender` VARCHAR(20) NOT NULL,\n")
	b.WriteString("  `recipient` VARCHAR(20) NOT NULL,\n")
	b.WriteString("  `message_text` VARCHAR(160) NOT NULL,\n")
	b.WriteString("  `timestamp` DATETIME NOT NULL,\n")
	b.WriteString("  `status` TINYINT NOT NULL,\n")
	b.WriteString("  INDEX `idx_sender` (`sender`),\n")
	b.WriteString("  INDEX `idx_recipient` (`recipient`),\n")
	b.WriteString("  INDEX `idx_timestamp` (`timestamp`)\n")
	b.WriteString(")")
	if engine != "" {
		fmt.Fprintf(&b, " ENGINE=%s", engine)
	}
	return b.String()
}

// Provision creates the relation when missing, drop recreates it from scratch
func (d *Database) Provision(ctx context.Context, table, engine string, drop bool) error {
	if drop {
		query := fmt.Sprintf("DROP TABLE IF EXISTS `%s`", table)
		if _, err := d.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("exec sql: [%v], error: %v", query, err)
		}
	}
	query := CreateTableSQL(table, engine)
	if _, err := d.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("exec sql: [%v], error: %v", query, err)
	}
	return nil
}

// GetTableEngine returns the storage engine of table in the current schema, empty when the table is missing
func (d *Database) GetTableEngine(ctx context.Context, table string) (string, error) {
	_, res, err := d.GeneralQuery(ctx, `SELECT
	ENGINE AS ENGINE
FROM
	information_schema.TABLES
WHERE
	table_schema = DATABASE()
	AND table_name = ?`, table)
	if err != nil {
		return "", err
	}
	if len(res) == 0 {
		return "", nil
	}
	return res[0]["ENGINE"], nil
}

var retryableErrorNumbers = map[uint16]struct{}{
	1205: {}, // ER_LOCK_WAIT_TIMEOUT
	1213: {}, // ER_LOCK_DEADLOCK
	1297: {}, // ER_GET_TEMPORARY_ERRMSG, ndb temporary errors
	1614: {}, // ER_XA_RBDEADLOCK
	2006: {}, // CR_SERVER_GONE_ERROR
	2013: {}, // CR_SERVER_LOST
}

// IsRetryable reports transient cluster conditions worth another attempt of the same batch.
// A failed commit may already be applied, so commit phase errors are never retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errs.Phase(err) == errs.PhaseCommit {
		return false
	}
	err = errs.Root(err)
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		_, ok := retryableErrorNumbers[myErr.Number]
		return ok
	}
	return false
}
