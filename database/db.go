/*
Copyright 2025 Velora Payments Authors.

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
	"database/sql"
	"log"
	"sync"

	_ "github.com/lib/pq"

	"github.com/velorapay/velora/config"
)

var instance *Datasource
var once sync.Once

type Datasource struct {
	Conn *sql.DB
}

func NewDataSource(configuration *config.Configuration) (IDataSource, error) {
	con, err := GetDBConnection(configuration)
	if err != nil {
		return nil, err
	}
	return con, nil
}

// GetDBConnection provides a global access point to the instance and initializes it if it's not already.
func GetDBConnection(configuration *config.Configuration) (*Datasource, error) {
	var err error
	once.Do(func() {
		con, errConn := ConnectDB(configuration.DataSource.Dns)
		if errConn != nil {
			err = errConn
			return
		}
		instance = &Datasource{Conn: con}
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

func ConnectDB(dns string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dns)
	if err != nil {
		return nil, err
	}
	err = db.Ping()
	if err != nil {
		log.Printf("database Connection error ❌: %v", err)
		return nil, err
	}
	err = createTransferTable(db)
	if err != nil {
		return nil, err
	}
	err = createTransferEventTable(db)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// createTransferTable creates a PostgreSQL table for the Transfer struct
func createTransferTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS transfers (
			id SERIAL PRIMARY KEY,
			transfer_id TEXT NOT NULL UNIQUE,
			user_id TEXT NOT NULL,
			send_amount DOUBLE PRECISION NOT NULL,
			send_currency TEXT NOT NULL,
			receive_amount DOUBLE PRECISION NOT NULL,
			receive_currency TEXT NOT NULL,
			exchange_rate DOUBLE PRECISION NOT NULL,
			fees JSONB,
			rail TEXT NOT NULL,
			status TEXT NOT NULL,
			recipient JSONB,
			payment_id TEXT,
			movement_id TEXT,
			payout_id TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			estimated_completion TIMESTAMP,
			completed_at TIMESTAMP,
			meta_data JSONB
		);

		CREATE INDEX IF NOT EXISTS idx_transfers_user_id ON transfers (user_id);
		CREATE INDEX IF NOT EXISTS idx_transfers_payment_id ON transfers (payment_id);
		CREATE INDEX IF NOT EXISTS idx_transfers_movement_id ON transfers (movement_id);
		CREATE INDEX IF NOT EXISTS idx_transfers_payout_id ON transfers (payout_id);
	`)

	return err
}

// createTransferEventTable creates a PostgreSQL table for the append-only timeline
func createTransferEventTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS transfer_events (
			id SERIAL PRIMARY KEY,
			event_id TEXT NOT NULL UNIQUE,
			transfer_id TEXT NOT NULL REFERENCES transfers(transfer_id),
			type TEXT NOT NULL,
			outcome TEXT NOT NULL,
			message TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			meta_data JSONB
		);

		CREATE INDEX IF NOT EXISTS idx_transfer_events_transfer_id ON transfer_events (transfer_id);
	`)

	return err
}
