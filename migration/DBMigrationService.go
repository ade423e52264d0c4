// Copyright 2024-2025 NetCracker Technology Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package migration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-pg/pg/v10"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/db"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/entity"
	log "github.com/sirupsen/logrus"
)

type DBMigrationService interface {
	Migrate() (int, int, bool, error)
}

func NewDBMigrationService(cp db.ConnectionProvider, basePath string) (DBMigrationService, error) {
	service := &dbMigrationServiceImpl{
		cp:               cp,
		migrationsFolder: basePath + "/resources/migrations",
	}
	upMigrations, err := service.getMigrationFilenamesMap()
	if err != nil {
		return nil, fmt.Errorf("failed to read migration files: %v", err.Error())
	}
	service.upMigrations = upMigrations
	return service, nil
}

type dbMigrationServiceImpl struct {
	cp               db.ConnectionProvider
	migrationsFolder string
	upMigrations     map[int]string
}

func (d *dbMigrationServiceImpl) createSchemaMigrationsTable() error {
	_, err := d.cp.GetConnection().Exec(`
		create table if not exists schema_migrations
		(
			version integer not null,
			dirty boolean not null,
			PRIMARY KEY(version)
		)`)
	return err
}

func (d *dbMigrationServiceImpl) Migrate() (currentMigrationNum int, newMigrationNum int, migrationApplied bool, err error) {
	log.Infof("Schema Migration: start")

	var currentMigrationNumber int
	_, err = d.cp.GetConnection().QueryOne(pg.Scan(&currentMigrationNumber), `SELECT version FROM schema_migrations`)
	if err != nil {
		if strings.Contains(err.Error(), "does not exist") {
			err = d.createSchemaMigrationsTable()
			if err != nil {
				return 0, 0, false, fmt.Errorf("failed to create schema migrations table: %w", err)
			}
			_, err = d.cp.GetConnection().QueryOne(pg.Scan(&currentMigrationNumber), `SELECT version FROM schema_migrations`)
		}
		if err != nil && err != pg.ErrNoRows {
			return 0, 0, false, err
		}
	}
	newMigrationNumber := len(d.upMigrations)
	if currentMigrationNumber > newMigrationNumber {
		return 0, 0, false, fmt.Errorf("currently applied migration version (%v) is higher than the latest known migration (%v), downgrade is not supported", currentMigrationNumber, newMigrationNumber)
	}
	if currentMigrationNumber == newMigrationNumber {
		log.Infof("Schema Migration: no migrations required")
		return currentMigrationNumber, newMigrationNumber, false, nil
	}

	log.Infof("Schema Migration: start applying %v up migrations", newMigrationNumber-currentMigrationNumber)
	err = d.applyMigrations(currentMigrationNumber, newMigrationNumber)
	if err != nil {
		return 0, 0, false, err
	}
	log.Infof("Schema Migration: finished successfully")
	return currentMigrationNumber, newMigrationNumber, true, nil
}

func (d *dbMigrationServiceImpl) applyMigrations(currentVersion int, newVersion int) error {
	ctx := context.Background()
	return d.cp.GetConnection().RunInTransaction(ctx, func(tx *pg.Tx) error {
		for num := currentVersion + 1; num <= newVersion; num++ {
			migrationFile, exists := d.upMigrations[num]
			if !exists {
				return fmt.Errorf("up migration %v is missing", num)
			}
			sqlUp, err := os.ReadFile(migrationFile)
			if err != nil {
				return fmt.Errorf("failed to read migration file %v: %w", migrationFile, err)
			}
			rs, err := tx.Exec(string(sqlUp))
			if err != nil {
				return fmt.Errorf("failed to apply up migration %v: %w", num, err)
			}
			log.Infof("successfully applied up migration %v: %v rows affected", num, rs.RowsAffected())
		}
		migrationEntity := entity.MigrationEntity{
			Version: newVersion,
			Dirty:   false,
		}
		_, err := tx.Model(&entity.MigrationEntity{}).
			Where("version is not null").
			Delete()
		if err != nil {
			return fmt.Errorf("failed to update schema_migrations table with latest migration version %v", newVersion)
		}
		_, err = tx.Model(&migrationEntity).Insert()
		if err != nil {
			return fmt.Errorf("failed to update schema_migrations table with latest migration version %v", newVersion)
		}
		return nil
	})
}

var upMigrationFileRegexp = regexp.MustCompile(`^[0-9]+_.+\.up\.sql$`)

func (d *dbMigrationServiceImpl) getMigrationFilenamesMap() (map[int]string, error) {
	folder, err := os.Open(d.migrationsFolder)
	if err != nil {
		return nil, err
	}
	defer folder.Close()
	fileNames, err := folder.Readdirnames(-1)
	if err != nil {
		return nil, err
	}
	upMigrations := make(map[int]string, 0)
	maxUpMigrationNumber := -1
	for _, file := range fileNames {
		if upMigrationFileRegexp.MatchString(file) {
			num, _ := strconv.Atoi(strings.Split(file, `_`)[0])
			if _, exists := upMigrations[num]; exists {
				return nil, fmt.Errorf("found duplicate migration number, migration is not possible: %v", file)
			}
			upMigrations[num] = filepath.Join(d.migrationsFolder, file)
			if maxUpMigrationNumber < num {
				maxUpMigrationNumber = num
			}
		}
	}
	if maxUpMigrationNumber != -1 && maxUpMigrationNumber != len(upMigrations) {
		return nil, fmt.Errorf("highest migration number (%v) should be equal to a total number of migrations (%v)", maxUpMigrationNumber, len(upMigrations))
	}
	return upMigrations, nil
}
