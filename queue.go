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
	"encoding/json"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"github.com/velorapay/velora/config"
	redis_db "github.com/velorapay/velora/internal/redis-db"
)

// Queue represents a queue for handling various tasks.
type Queue struct {
	Client    *asynq.Client
	Inspector *asynq.Inspector
}

// PayoutMonitorPayload is the task payload for polling a payout until it
// reaches a terminal provider state.
type PayoutMonitorPayload struct {
	TransferID string `json:"transfer_id"`
	PayoutID   string `json:"payout_id"`
}

// NewQueue initializes a new Queue instance with the provided configuration.
func NewQueue(conf *config.Configuration) *Queue {
	redisOption, err := redis_db.ParseRedisURL(conf.Redis.Dns, conf.Redis.SkipTLSVerify)
	if err != nil {
		log.Fatalf("Error parsing Redis URL: %v", err)
	}

	queueOptions := asynq.RedisClientOpt{Addr: redisOption.Addr, Password: redisOption.Password, DB: redisOption.DB, TLSConfig: redisOption.TLSConfig}
	client := asynq.NewClient(queueOptions)
	inspector := asynq.NewInspector(queueOptions)
	return &Queue{
		Client:    client,
		Inspector: inspector,
	}
}

// queuePayoutMonitor enqueues a delayed task that checks on a payout. The
// task id pins one monitor per transfer so duplicate enqueues collapse.
func (q *Queue) queuePayoutMonitor(payload PayoutMonitorPayload, delay time.Duration) error {
	cfg, err := config.Fetch()
	if err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	taskOptions := []asynq.Option{
		asynq.TaskID("payout-monitor:" + payload.TransferID),
		asynq.Queue(cfg.Queue.PayoutMonitorQueue),
		asynq.ProcessIn(delay),
	}
	task := asynq.NewTask(cfg.Queue.PayoutMonitorQueue, body, taskOptions...)
	info, err := q.Client.Enqueue(task)
	if err != nil {
		if err == asynq.ErrTaskIDConflict {
			return nil
		}
		log.Println(err, info)
		return err
	}
	log.Printf(" [*] Successfully enqueued payout monitor: %+v", payload.TransferID)
	return nil
}

// enqueuePayoutMonitor is the nil-safe enqueue used by the orchestrator and
// the worker; a Velora built without a queue simply skips monitoring.
func (v *Velora) enqueuePayoutMonitor(payload PayoutMonitorPayload, delay time.Duration) error {
	if v.queue == nil {
		return nil
	}
	return v.queue.queuePayoutMonitor(payload, delay)
}
