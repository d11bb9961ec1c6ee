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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wentaojin/dbload/database/sqlite"
	"github.com/wentaojin/dbload/pkg/errs"
	"github.com/wentaojin/dbload/pkg/generator"
)

func sqliteConfig(t *testing.T) *ClusterConfig {
	t.Helper()
	return &ClusterConfig{
		DbType: DatabaseTypeSqlite,
		DSN:    sqlite.BuildTargetDSN(filepath.Join(t.TempDir(), "target.db")),
	}
}

func countRows(t *testing.T, cfg *ClusterConfig, table string) int {
	t.Helper()
	db, err := CreateConnector(context.Background(), cfg)
	require.NoError(t, err)
	defer db.CloseDatabase()
	var n int
	require.NoError(t, db.(*sqlite.Target).DB.QueryRow("SELECT COUNT(*) FROM `"+table+"`").Scan(&n))
	return n
}

func TestValidateTableName(t *testing.T) {
	assert.NoError(t, ValidateTableName("messages"))
	assert.NoError(t, ValidateTableName("_load_2024"))
	assert.Error(t, ValidateTableName("1messages"))
	assert.Error(t, ValidateTableName("messages; DROP TABLE x"))
	assert.Error(t, ValidateTableName(""))
}

func TestCreateConnectorUnsupported(t *testing.T) {
	_, err := CreateConnector(context.Background(), &ClusterConfig{DbType: "oracle"})
	require.Error(t, err)
}

func TestProvisionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	cfg := sqliteConfig(t)
	p := &Provisioner{Config: cfg, Table: "messages"}

	require.NoError(t, p.Provision(ctx))

	open := WorkerOpener(cfg, "messages")
	bw, err := open(ctx, 0)
	require.NoError(t, err)
	require.NoError(t, bw.WriteBatch(ctx, generator.NewWithSeed(1, 1).Batch(10)))
	require.NoError(t, bw.Close())

	// a second provisioning neither fails nor loses rows
	require.NoError(t, p.Provision(ctx))
	assert.Equal(t, 10, countRows(t, cfg, "messages"))
}

func TestProvisionDropRecreates(t *testing.T) {
	ctx := context.Background()
	cfg := sqliteConfig(t)
	require.NoError(t, (&Provisioner{Config: cfg, Table: "messages"}).Provision(ctx))

	bw, err := WorkerOpener(cfg, "messages")(ctx, 0)
	require.NoError(t, err)
	require.NoError(t, bw.WriteBatch(ctx, generator.NewWithSeed(2, 2).Batch(5)))
	require.NoError(t, bw.Close())

	require.NoError(t, (&Provisioner{Config: cfg, Table: "messages", Drop: true}).Provision(ctx))
	assert.Equal(t, 0, countRows(t, cfg, "messages"))
}

func TestProvisionRejectsBadTable(t *testing.T) {
	err := (&Provisioner{Config: sqliteConfig(t), Table: "bad name"}).Provision(context.Background())
	assert.True(t, errs.IsProvisioning(err))
}

func TestProvisionUnreachableTarget(t *testing.T) {
	cfg := &ClusterConfig{DbType: "oracle"}
	err := (&Provisioner{Config: cfg, Table: "messages"}).Provision(context.Background())
	assert.True(t, errs.IsProvisioning(err))
}

func TestWorkerOpenerLargeBatch(t *testing.T) {
	ctx := context.Background()
	cfg := sqliteConfig(t)
	require.NoError(t, (&Provisioner{Config: cfg, Table: "messages"}).Provision(ctx))

	bw, err := WorkerOpener(cfg, "messages")(ctx, 1)
	require.NoError(t, err)
	// more rows than one statement can bind, the writer splits them
	rows := generator.NewWithSeed(3, 3).Batch(sqlite.MaxPlaceholders/6 + 10)
	require.NoError(t, bw.WriteBatch(ctx, rows))
	require.NoError(t, bw.Close())
	assert.Equal(t, len(rows), countRows(t, cfg, "messages"))
}

func TestWorkerOpenerMissingTableFailsWrite(t *testing.T) {
	ctx := context.Background()
	cfg := sqliteConfig(t)
	bw, err := WorkerOpener(cfg, "absent")(ctx, 0)
	require.NoError(t, err)
	defer bw.Close()

	err = bw.WriteBatch(ctx, generator.NewWithSeed(4, 4).Batch(1))
	require.Error(t, err)
	assert.True(t, errs.IsWrite(err))
}

func TestWorkerOpenerConnectionError(t *testing.T) {
	_, err := WorkerOpener(&ClusterConfig{DbType: "oracle"}, "messages")(context.Background(), 7)
	assert.True(t, errs.IsConnection(err))
}

func TestDBConnectorMetadata(t *testing.T) {
	dir := t.TempDir()
	c := NewDBConnector()
	db, err := c.GetMetadata(dir)
	require.NoError(t, err)
	again, err := c.GetMetadata(dir)
	require.NoError(t, err)
	assert.Same(t, db, again)

	require.NoError(t, c.CloseDatabase(DefaultSqliteMetadataName))
	assert.Error(t, c.CloseDatabase(DefaultSqliteMetadataName))
}
