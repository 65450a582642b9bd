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

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT = "5002"
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL       bool   `json:"ssl" envconfig:"VELORA_SERVER_SSL"`
	Secure    bool   `json:"secure" envconfig:"VELORA_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"VELORA_SERVER_SECRET_KEY"`
	Domain    string `json:"domain" envconfig:"VELORA_SERVER_SSL_DOMAIN"`
	Email     string `json:"ssl_email" envconfig:"VELORA_SERVER_SSL_EMAIL"`
	Port      string `json:"port" envconfig:"VELORA_SERVER_PORT"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"VELORA_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns           string `json:"dns" envconfig:"VELORA_REDIS_DNS"`
	SkipTLSVerify bool   `json:"skip_tls_verify" envconfig:"VELORA_REDIS_SKIP_TLS_VERIFY"`
}

type QueueConfig struct {
	WebhookQueue       string `json:"webhook_queue" envconfig:"VELORA_QUEUE_WEBHOOK"`
	PayoutMonitorQueue string `json:"payout_monitor_queue" envconfig:"VELORA_QUEUE_PAYOUT_MONITOR"`
}

// CustodialRailConfig points at the custodial payments provider.
type CustodialRailConfig struct {
	BaseURL    string  `json:"base_url" envconfig:"VELORA_CUSTODIAL_BASE_URL"`
	APIKey     string  `json:"api_key" envconfig:"VELORA_CUSTODIAL_API_KEY"`
	TimeoutSec int     `json:"timeout_sec" envconfig:"VELORA_CUSTODIAL_TIMEOUT_SEC"`
	PayoutFee  float64 `json:"payout_fee" envconfig:"VELORA_CUSTODIAL_PAYOUT_FEE"`
}

// LedgerRailConfig points at the blockchain settlement rail.
type LedgerRailConfig struct {
	Enabled            bool   `json:"enabled" envconfig:"VELORA_LEDGER_ENABLED"`
	RpcURL             string `json:"rpc_url" envconfig:"VELORA_LEDGER_RPC_URL"`
	ChainID            int64  `json:"chain_id" envconfig:"VELORA_LEDGER_CHAIN_ID"`
	StablecoinContract string `json:"stablecoin_contract" envconfig:"VELORA_LEDGER_STABLECOIN_CONTRACT"`
	ConfirmationDepth  uint64 `json:"confirmation_depth" envconfig:"VELORA_LEDGER_CONFIRMATION_DEPTH"`
	DefaultGasLimit    uint64 `json:"default_gas_limit" envconfig:"VELORA_LEDGER_DEFAULT_GAS_LIMIT"`
	PollIntervalSec    int    `json:"poll_interval_sec" envconfig:"VELORA_LEDGER_POLL_INTERVAL_SEC"`
}

type RailsConfig struct {
	Custodial CustodialRailConfig `json:"custodial"`
	Ledger    LedgerRailConfig    `json:"ledger"`
}

// RatesConfig configures the exchange-rate sources and quote locking.
type RatesConfig struct {
	PrimaryURL      string `json:"primary_url" envconfig:"VELORA_RATES_PRIMARY_URL"`
	FallbackURL     string `json:"fallback_url" envconfig:"VELORA_RATES_FALLBACK_URL"`
	QuoteTTLMinutes int    `json:"quote_ttl_minutes" envconfig:"VELORA_RATES_QUOTE_TTL_MINUTES"`
}

// FeesConfig holds the pricing knobs for the fee calculator.
type FeesConfig struct {
	ProcessingPercent float64 `json:"processing_percent" envconfig:"VELORA_FEES_PROCESSING_PERCENT"`
	ProcessingFixed   float64 `json:"processing_fixed" envconfig:"VELORA_FEES_PROCESSING_FIXED"`
	ExchangePercent   float64 `json:"exchange_percent" envconfig:"VELORA_FEES_EXCHANGE_PERCENT"`
	CustodialNetwork  float64 `json:"custodial_network" envconfig:"VELORA_FEES_CUSTODIAL_NETWORK"`
}

type RetryConfig struct {
	MaxAttempts  int `json:"max_attempts" envconfig:"VELORA_RETRY_MAX_ATTEMPTS"`
	BaseDelaySec int `json:"base_delay_sec" envconfig:"VELORA_RETRY_BASE_DELAY_SEC"`
	MaxDelaySec  int `json:"max_delay_sec" envconfig:"VELORA_RETRY_MAX_DELAY_SEC"`
}

// RecommendationConfig tunes the rail chooser. Above LargeAmountThreshold
// the custodial rail is preferred regardless of cost.
type RecommendationConfig struct {
	LargeAmountThreshold float64 `json:"large_amount_threshold" envconfig:"VELORA_RECOMMENDATION_LARGE_AMOUNT_THRESHOLD"`
}

// WebhookConfig holds the shared secret inbound provider webhooks are
// signed with.
type WebhookConfig struct {
	SharedSecret string `json:"shared_secret" envconfig:"VELORA_WEBHOOK_SHARED_SECRET"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"VELORA_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"VELORA_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"VELORA_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url"`
}

type Notification struct {
	Slack   SlackWebhook `json:"slack"`
	Webhook struct {
		Url     string            `json:"url"`
		Headers map[string]string `json:"headers"`
	} `json:"webhook"`
	Email struct {
		From string `json:"from"`
		Url  string `json:"url"`
	} `json:"email"`
	Sms struct {
		Url string `json:"url"`
	} `json:"sms"`
}

type Configuration struct {
	ProjectName     string               `json:"project_name" envconfig:"VELORA_PROJECT_NAME"`
	EnableTelemetry bool                 `json:"enable_telemetry" envconfig:"VELORA_ENABLE_TELEMETRY"`
	Server          ServerConfig         `json:"server"`
	DataSource      DataSourceConfig     `json:"data_source"`
	Redis           RedisConfig          `json:"redis"`
	Queue           QueueConfig          `json:"queue"`
	Rails           RailsConfig          `json:"rails"`
	Rates           RatesConfig          `json:"rates"`
	Fees            FeesConfig           `json:"fees"`
	Retry           RetryConfig          `json:"retry"`
	Recommendation  RecommendationConfig `json:"recommendation"`
	Webhook         WebhookConfig        `json:"webhook"`
	Notification    Notification         `json:"notification"`
	RateLimit       RateLimitConfig      `json:"rate_limit"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}

	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("velora", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called velora.json with your config")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Velora Server"
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)

	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.Queue.WebhookQueue == "" {
		cnf.Queue.WebhookQueue = "new:webhook"
	}
	if cnf.Queue.PayoutMonitorQueue == "" {
		cnf.Queue.PayoutMonitorQueue = "new:payout_monitor"
	}

	if cnf.Rails.Custodial.TimeoutSec == 0 {
		cnf.Rails.Custodial.TimeoutSec = 30
	}
	if cnf.Rails.Ledger.ConfirmationDepth == 0 {
		cnf.Rails.Ledger.ConfirmationDepth = 12
	}
	if cnf.Rails.Ledger.DefaultGasLimit == 0 {
		cnf.Rails.Ledger.DefaultGasLimit = 65000
	}
	if cnf.Rails.Ledger.PollIntervalSec == 0 {
		cnf.Rails.Ledger.PollIntervalSec = 5
	}

	if cnf.Rates.QuoteTTLMinutes == 0 {
		cnf.Rates.QuoteTTLMinutes = 10
	}

	if cnf.Fees.ProcessingPercent == 0 {
		cnf.Fees.ProcessingPercent = 2.9
	}
	if cnf.Fees.ProcessingFixed == 0 {
		cnf.Fees.ProcessingFixed = 0.30
	}
	if cnf.Fees.ExchangePercent == 0 {
		cnf.Fees.ExchangePercent = 0.5
	}

	if cnf.Retry.MaxAttempts == 0 {
		cnf.Retry.MaxAttempts = 3
	}
	if cnf.Retry.BaseDelaySec == 0 {
		cnf.Retry.BaseDelaySec = 1
	}
	if cnf.Retry.MaxDelaySec == 0 {
		cnf.Retry.MaxDelaySec = 10
	}

	if cnf.Recommendation.LargeAmountThreshold == 0 {
		cnf.Recommendation.LargeAmountThreshold = 1000
	}

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}
	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800 // 3 hours in seconds
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	if cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's a required field.")
		return errors.New("redis DNS is required")
	}

	return nil
}

// QuoteTTL returns the configured quote validity window.
func (r RatesConfig) QuoteTTL() time.Duration {
	return time.Duration(r.QuoteTTLMinutes) * time.Minute
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	_ = mockConfig.validateAndAddDefaults()
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
