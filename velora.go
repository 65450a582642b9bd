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

package velora

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/velorapay/velora/config"
	"github.com/velorapay/velora/database"
	"github.com/velorapay/velora/internal/notification"
	redis_db "github.com/velorapay/velora/internal/redis-db"
	"github.com/velorapay/velora/model"
	"github.com/velorapay/velora/rail"
)

// Velora represents the main struct for the Velora application.
type Velora struct {
	queue      *Queue
	redis      redis.UniversalClient
	datasource database.IDataSource
	adapters   *rail.Adapters
	quoter     *rail.RateQuoter
	notifier   notification.Gateway
	tracker    *model.TransferTracker
}

// NewTransferTracker initializes the in-memory index used to answer status
// reads for in-flight transfers.
func NewTransferTracker() *model.TransferTracker {
	return &model.TransferTracker{
		Transfers: make(map[string]*model.Transfer),
	}
}

// NewVelora initializes a new instance of Velora with the provided database
// datasource. It fetches the configuration and wires the redis client, rail
// adapters, rate quoter, queue and notification gateway.
//
// Parameters:
// - db database.IDataSource: The datasource for database operations.
//
// Returns:
// - *Velora: A pointer to the newly created Velora instance.
// - error: An error if any of the initialization steps fail.
func NewVelora(db database.IDataSource) (*Velora, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	redisClient, err := redis_db.NewRedisClient([]string{fmt.Sprintf("redis://%s", configuration.Redis.Dns)}, configuration.Redis.SkipTLSVerify)
	if err != nil {
		return nil, err
	}

	adapters := rail.NewAdapters(configuration, redisClient.Client())
	quoter := rail.NewRateQuoter(configuration.Rates,
		rail.NewFeeCalculator(configuration.Fees, nil), redisClient.Client())

	newVelora := &Velora{
		queue:      NewQueue(configuration),
		redis:      redisClient.Client(),
		datasource: db,
		adapters:   adapters,
		quoter:     quoter,
		notifier:   notification.NewGateway(),
		tracker:    NewTransferTracker(),
	}
	return newVelora, nil
}

// trackTransfer stores a snapshot so callers can keep mutating their own
// aggregate without racing concurrent status reads.
func (v *Velora) trackTransfer(transfer *model.Transfer) {
	v.tracker.Mutex.Lock()
	defer v.tracker.Mutex.Unlock()
	v.tracker.Transfers[transfer.TransferID] = transfer.Snapshot()
}

// trackedTransfer hands out a snapshot for the same reason; the entries in
// the map are never mutated in place.
func (v *Velora) trackedTransfer(id string) *model.Transfer {
	v.tracker.Mutex.Lock()
	defer v.tracker.Mutex.Unlock()
	tracked := v.tracker.Transfers[id]
	if tracked == nil {
		return nil
	}
	return tracked.Snapshot()
}

// GetRate exposes the live exchange rate for a currency pair.
func (v *Velora) GetRate(ctx context.Context, source, dest string) (float64, error) {
	return v.quoter.GetRate(ctx, source, dest)
}

// LockRate fixes the current rate into a time-bounded quote.
func (v *Velora) LockRate(ctx context.Context, source, dest string, amount float64) (*model.Quote, error) {
	return v.quoter.LockRate(ctx, source, dest, amount)
}
