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
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wentaojin/dbload/pkg/errs"
)

func newMock(t *testing.T) (*Database, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &Database{DB: db}, mock
}

func TestBuildDatabaseDSN(t *testing.T) {
	dsn, err := BuildDatabaseDSN("root", "rootpassword", "10.0.0.1", 6033, "testdb", "UTF8MB4", "readTimeout=30s")
	require.NoError(t, err)

	cfg, err := gomysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "root", cfg.User)
	assert.Equal(t, "rootpassword", cfg.Passwd)
	assert.Equal(t, "tcp", cfg.Net)
	assert.Equal(t, "10.0.0.1:6033", cfg.Addr)
	assert.Equal(t, "testdb", cfg.DBName)
	assert.True(t, cfg.ParseTime)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, "30s", cfg.ReadTimeout.String())
	assert.NotContains(t, cfg.Params, "readTimeout")
	assert.Equal(t, time.Local, cfg.Loc)
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestBuildDatabaseDSNBadParams(t *testing.T) {
	_, err := BuildDatabaseDSN("root", "", "localhost", 3306, "testdb", "", "%zz")
	require.Error(t, err)
}

func TestCreateTableSQL(t *testing.T) {
	ddl := CreateTableSQL("messages", DefaultEngine)
	assert.Contains(t, ddl, "CREATE TABLE IF NOT EXISTS `messages`")
	assert.Contains(t, ddl, "`id` BIGINT AUTO_INCREMENT PRIMARY KEY")
	assert.Contains(t, ddl, "INDEX `idx_sender` (`sender`)")
	assert.Contains(t, ddl, "INDEX `idx_recipient` (`recipient`)")
	assert.Contains(t, ddl, "INDEX `idx_timestamp` (`timestamp`)")
	assert.Contains(t, ddl, "ENGINE=NDBCLUSTER")

	assert.NotContains(t, CreateTableSQL("messages", ""), "ENGINE=")
}

func TestProvision(t *testing.T) {
	d, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(CreateTableSQL("messages", "NDBCLUSTER"))).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, d.Provision(context.Background(), "messages", "NDBCLUSTER", false))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProvisionDrop(t *testing.T) {
	d, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("DROP TABLE IF EXISTS `messages`")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, d.Provision(context.Background(), "messages", "", true))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProvisionFailure(t *testing.T) {
	d, mock := newMock(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnError(&gomysql.MySQLError{Number: 1044, Message: "access denied"})
	err := d.Provision(context.Background(), "messages", "NDBCLUSTER", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestGetTableEngine(t *testing.T) {
	d, mock := newMock(t)
	mock.ExpectQuery("SELECT").WithArgs("messages").
		WillReturnRows(sqlmock.NewRows([]string{"ENGINE"}).AddRow("ndbcluster"))
	engine, err := d.GetTableEngine(context.Background(), "messages")
	require.NoError(t, err)
	assert.Equal(t, "ndbcluster", engine)

	mock.ExpectQuery("SELECT").WithArgs("absent").WillReturnRows(sqlmock.NewRows([]string{"ENGINE"}))
	engine, err = d.GetTableEngine(context.Background(), "absent")
	require.NoError(t, err)
	assert.Empty(t, engine)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.True(t, IsRetryable(driver.ErrBadConn))
	assert.True(t, IsRetryable(gomysql.ErrInvalidConn))
	assert.True(t, IsRetryable(&gomysql.MySQLError{Number: 1213}))
	assert.True(t, IsRetryable(&gomysql.MySQLError{Number: 1297}))
	assert.True(t, IsRetryable(fmt.Errorf("batch: %w", &gomysql.MySQLError{Number: 1205})))
	assert.True(t, IsRetryable(errs.ErrWrite.Wrap(&gomysql.MySQLError{Number: 1205}, "write failed")))
	assert.False(t, IsRetryable(&gomysql.MySQLError{Number: 1062}))
	assert.False(t, IsRetryable(errors.New("syntax")))
}

func TestIsRetryableRejectsCommitPhase(t *testing.T) {
	assert.False(t, IsRetryable(&gomysql.MySQLError{Number: 1180}))
	assert.False(t, IsRetryable(&gomysql.MySQLError{Number: 1181}))

	lost := errs.ErrWrite.Wrap(&gomysql.MySQLError{Number: 2013}, "commit failed").WithProperty(errs.ErrPropPhase, errs.PhaseCommit)
	assert.False(t, IsRetryable(lost))
	deadlock := errs.ErrWrite.Wrap(&gomysql.MySQLError{Number: 1213}, "commit failed").WithProperty(errs.ErrPropPhase, errs.PhaseCommit)
	assert.False(t, IsRetryable(deadlock))

	insert := errs.ErrWrite.Wrap(&gomysql.MySQLError{Number: 1213}, "insert failed").WithProperty(errs.ErrPropPhase, errs.PhaseInsert)
	assert.True(t, IsRetryable(insert))
	assert.True(t, IsRetryable(errs.ErrWrite.Wrap(driver.ErrBadConn, "begin failed").WithProperty(errs.ErrPropPhase, errs.PhaseBegin)))
}
