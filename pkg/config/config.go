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
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/wentaojin/dbload/pkg/errs"
	"gopkg.in/yaml.v3"
)

const (
	DriverMySQL  = "mysql"
	DriverSqlite = "sqlite"

	DefaultHost             = "localhost"
	DefaultPort             = 6033 // ProxySQL in front of the cluster
	DefaultUser             = "root"
	DefaultPassword         = "rootpassword"
	DefaultDatabase         = "testdb"
	DefaultTable            = "messages"
	DefaultEngine           = "NDBCLUSTER"
	DefaultCharset          = "utf8mb4"
	DefaultSqlitePath       = "dbload-target.db"
	DefaultWorkers          = 10
	DefaultRecordsPerWorker = 10000
	DefaultBatchSize        = 1000
)

type Connection struct {
	Driver     string `toml:"driver" yaml:"driver" validate:"oneof=mysql sqlite"`
	Host       string `toml:"host" yaml:"host" validate:"required_if=Driver mysql"`
	Port       uint64 `toml:"port" yaml:"port" validate:"required_if=Driver mysql,lte=65535"`
	User       string `toml:"user" yaml:"user" validate:"required_if=Driver mysql"`
	Password   string `toml:"password" yaml:"password"`
	Database   string `toml:"database" yaml:"database" validate:"required_if=Driver mysql"`
	Charset    string `toml:"charset" yaml:"charset"`
	Params     string `toml:"params" yaml:"params"`
	Engine     string `toml:"engine" yaml:"engine" validate:"omitempty,alphanum"`
	Table      string `toml:"table" yaml:"table" validate:"required,max=64"`
	SqlitePath string `toml:"sqlite-path" yaml:"sqlite-path" validate:"required_if=Driver sqlite"`
}

type Retry struct {
	MaxRetries int           `toml:"max-retries" yaml:"max-retries" validate:"gte=0"`
	Delay      time.Duration `toml:"delay" yaml:"delay" validate:"gte=0"`
	MaxDelay   time.Duration `toml:"max-delay" yaml:"max-delay" validate:"gte=0"`
}

// RunConfig is immutable once validated, every worker reads the same instance
type RunConfig struct {
	Connection       Connection `toml:"connection" yaml:"connection"`
	Workers          int        `toml:"workers" yaml:"workers" validate:"gt=0"`
	RecordsPerWorker int        `toml:"records" yaml:"records" validate:"gte=0"`
	BatchSize        int        `toml:"batch-size" yaml:"batch-size" validate:"gt=0"`
	// MaxParallel bounds the workers running at the same time, zero runs all of them at once
	MaxParallel int   `toml:"max-parallel" yaml:"max-parallel" validate:"gte=0"`
	Retry       Retry `toml:"retry" yaml:"retry"`
}

func Default() *RunConfig {
	return &RunConfig{
		Connection: Connection{
			Driver:     DriverMySQL,
			Host:       DefaultHost,
			Port:       DefaultPort,
			User:       DefaultUser,
			Password:   DefaultPassword,
			Database:   DefaultDatabase,
			Charset:    DefaultCharset,
			Engine:     DefaultEngine,
			Table:      DefaultTable,
			SqlitePath: DefaultSqlitePath,
		},
		Workers:          DefaultWorkers,
		RecordsPerWorker: DefaultRecordsPerWorker,
		BatchSize:        DefaultBatchSize,
		Retry: Retry{
			Delay:    300 * time.Millisecond,
			MaxDelay: 5 * time.Second,
		},
	}
}

// LoadFile decodes a toml or yaml file on top of cfg, keys absent from the file keep their value
func LoadFile(path string, cfg *RunConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file [%s] failed: %v", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(cfg); err != nil {
			return errs.ErrConfigInvalid.Wrap(err, "decode toml config file [%s] failed", path)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return errs.ErrConfigInvalid.Wrap(err, "decode yaml config file [%s] failed", path)
		}
	default:
		return errs.ErrConfigInvalid.New("unsupported config file extension [%s], expect .toml, .yaml or .yml", filepath.Ext(path))
	}
	return nil
}

func (c *RunConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errs.ErrConfigInvalid.Wrap(err, "validation failed")
	}
	return nil
}

// TargetRecords is the configured total, workers times records per worker
func (c *RunConfig) TargetRecords() int64 {
	return int64(c.Workers) * int64(c.RecordsPerWorker)
}

// Address describes the target without credentials, used for logs and history
func (c *RunConfig) Address() string {
	if c.Connection.Driver == DriverSqlite {
		return fmt.Sprintf("sqlite://%s/%s", c.Connection.SqlitePath, c.Connection.Table)
	}
	return fmt.Sprintf("%s@%s:%d/%s.%s", c.Connection.User, c.Connection.Host, c.Connection.Port, c.Connection.Database, c.Connection.Table)
}

func (c *RunConfig) String() string {
	cp := *c
	if cp.Connection.Password != "" {
		cp.Connection.Password = "******"
	}
	var b bytes.Buffer
	if err := toml.NewEncoder(&b).Encode(cp); err != nil {
		return err.Error()
	}
	return b.String()
}
