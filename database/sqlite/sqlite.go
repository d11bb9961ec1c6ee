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
	"fmt"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const MetadataFileName = "dbload.db"

// Database is the local metadata store keeping the run history
type Database struct {
	mutex sync.RWMutex
	DB    *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	sqlitedb, err := gorm.Open(sqlite.Open(filepath.Join(dbPath, MetadataFileName)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := sqlitedb.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping the sqlite database error: [%s]", err)
	}

	if err := sqlitedb.AutoMigrate(
		&Run{},
		&RunWorker{},
	); err != nil {
		return nil, fmt.Errorf("migrate the sqlite table error: [%s]", err)
	}

	return &Database{DB: sqlitedb}, nil
}

func (d *Database) GetDatabase() interface{} {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d
}

func (d *Database) CloseDatabase() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *Database) RunTableName(ctx context.Context) string {
	return d.DB.NamingStrategy.TableName(reflect.TypeOf(Run{}).Name())
}

// CreateRun stores the run together with its worker rows
func (d *Database) CreateRun(ctx context.Context, data *Run) (*Run, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	err := d.DB.WithContext(ctx).Create(data).Error
	if err != nil {
		return nil, fmt.Errorf("create table [%s] record failed: %v", d.RunTableName(ctx), err)
	}
	return data, nil
}

func (d *Database) DeleteRun(ctx context.Context, runID string) (*Run, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	data := &Run{}
	if err := d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&Run{}).Where("run_id = ?", runID).Limit(1).Find(data).Error
		if err != nil {
			return fmt.Errorf("get table [%s] record failed: %v", d.RunTableName(ctx), err)
		}
		if data.RunID == "" {
			return fmt.Errorf("the run_id [%s] not found in table [%s]", runID, d.RunTableName(ctx))
		}
		if err = tx.Where("run_id = ?", runID).Delete(&RunWorker{}).Error; err != nil {
			return fmt.Errorf("delete worker records of run [%s] failed: %v", runID, err)
		}
		if err = tx.Where("run_id = ?", runID).Delete(&Run{}).Error; err != nil {
			return fmt.Errorf("delete table [%s] record failed: %v", d.RunTableName(ctx), err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return data, nil
}

// GetRun returns nil without error when the run does not exist
func (d *Database) GetRun(ctx context.Context, runID string) (*Run, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	var dataS []*Run
	err := d.DB.WithContext(ctx).Model(&Run{}).
		Preload("WorkerRuns", func(db *gorm.DB) *gorm.DB { return db.Order("worker_id") }).
		Where("run_id = ?", runID).Limit(1).Find(&dataS).Error
	if err != nil {
		return nil, fmt.Errorf("get table [%s] record failed: %v", d.RunTableName(ctx), err)
	}
	if len(dataS) == 0 {
		return nil, nil
	}
	return dataS[0], nil
}

// ListRun returns the newest runs first, page and pageSize zero list everything
func (d *Database) ListRun(ctx context.Context, page uint64, pageSize uint64) ([]*Run, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	var dataS []*Run
	if page == 0 && pageSize == 0 {
		err := d.DB.WithContext(ctx).Model(&Run{}).Order("id desc").Find(&dataS).Error
		if err != nil {
			return nil, fmt.Errorf("list table [%s] record failed: %v", d.RunTableName(ctx), err)
		}
		return dataS, nil
	}
	err := d.DB.WithContext(ctx).Scopes(Paginate(int(page), int(pageSize))).Model(&Run{}).Order("id desc").Find(&dataS).Error
	if err != nil {
		return nil, fmt.Errorf("list table [%s] record failed: %v", d.RunTableName(ctx), err)
	}
	return dataS, nil
}

func Paginate(page, pageSize int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if page <= 0 {
			page = 1
		}
		if pageSize <= 0 {
			pageSize = 10
		}
		return db.Offset((page - 1) * pageSize).Limit(pageSize)
	}
}
