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

package rail

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/velorapay/velora/config"
	"github.com/velorapay/velora/internal/apierror"
	"github.com/velorapay/velora/internal/request"
	"github.com/velorapay/velora/model"
)

const quoteKeyPrefix = "velora:quote:"

// RateQuoter converts between currency pairs and locks time-bounded quotes.
// Rates come from a primary HTTP source with a fallback; locked quotes live
// in redis for the configured TTL, after which they are indistinguishable
// from quotes that never existed.
type RateQuoter struct {
	conf  config.RatesConfig
	fees  *FeeCalculator
	redis redis.UniversalClient
}

func NewRateQuoter(conf config.RatesConfig, fees *FeeCalculator, redisClient redis.UniversalClient) *RateQuoter {
	return &RateQuoter{conf: conf, fees: fees, redis: redisClient}
}

type rateResponse struct {
	Rates map[string]float64 `json:"rates"`
}

// GetRate returns the exchange rate from source to dest. Same-currency
// pairs return 1.0 without any external lookup. The fallback source is
// consulted when the primary fails; only when both fail does the call
// surface RATE_UNAVAILABLE.
func (q *RateQuoter) GetRate(ctx context.Context, source, dest string) (float64, error) {
	if source == dest {
		return 1.0, nil
	}

	rate, err := q.fetchRate(ctx, q.conf.PrimaryURL, source, dest)
	if err == nil {
		return rate, nil
	}
	logrus.Warnf("primary rate source failed for %s/%s: %v", source, dest, err)

	if q.conf.FallbackURL != "" {
		rate, fallbackErr := q.fetchRate(ctx, q.conf.FallbackURL, source, dest)
		if fallbackErr == nil {
			return rate, nil
		}
		logrus.Warnf("fallback rate source failed for %s/%s: %v", source, dest, fallbackErr)
	}

	return 0, apierror.NewAPIError(apierror.ErrRateUnavailable,
		fmt.Sprintf("no exchange rate available for %s/%s", source, dest), err.Error())
}

func (q *RateQuoter) fetchRate(ctx context.Context, baseURL, source, dest string) (float64, error) {
	url := fmt.Sprintf("%s?base=%s&symbols=%s", baseURL, source, dest)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return 0, err
	}

	var body rateResponse
	resp, err := request.Call(req, &body)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode >= 400 {
		return 0, fmt.Errorf("rate source returned %d", resp.StatusCode)
	}

	rate, ok := body.Rates[dest]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("rate source has no data for %s/%s", source, dest)
	}
	return rate, nil
}

// LockRate fixes the current rate into a quote valid for the configured TTL
// and stores it under its id.
func (q *RateQuoter) LockRate(ctx context.Context, source, dest string, amount float64) (*model.Quote, error) {
	if amount <= 0 {
		return nil, apierror.NewAPIError(apierror.ErrValidation,
			"amount must be positive", fmt.Sprintf("quote requested for amount %v", amount))
	}

	rate, err := q.GetRate(ctx, source, dest)
	if err != nil {
		return nil, err
	}

	fees, err := q.fees.Breakdown(ctx, amount, model.RailCustodial)
	if err != nil {
		return nil, err
	}

	receive := decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(rate)).Round(2).InexactFloat64()
	now := time.Now()
	quote := &model.Quote{
		QuoteID:        model.GenerateUUIDWithSuffix("qt"),
		SourceCurrency: source,
		DestCurrency:   dest,
		Rate:           rate,
		SendAmount:     amount,
		ReceiveAmount:  receive,
		Fees:           fees,
		IssuedAt:       now,
		ExpiresAt:      now.Add(q.conf.QuoteTTL()),
	}

	payload, err := json.Marshal(quote)
	if err != nil {
		return nil, err
	}
	if err := q.redis.Set(ctx, quoteKeyPrefix+quote.QuoteID, payload, q.conf.QuoteTTL()).Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrStorage, "could not store quote", err.Error())
	}
	return quote, nil
}

// GetQuote fetches a previously locked quote. Expired and never-issued ids
// both return (nil, nil); redis TTL erases the distinction and callers only
// need reliable non-validity.
func (q *RateQuoter) GetQuote(ctx context.Context, quoteID string) (*model.Quote, error) {
	payload, err := q.redis.Get(ctx, quoteKeyPrefix+quoteID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrStorage, "could not fetch quote", err.Error())
	}

	var quote model.Quote
	if err := json.Unmarshal(payload, &quote); err != nil {
		return nil, err
	}
	if !quote.Valid(time.Now()) {
		return nil, nil
	}
	return &quote, nil
}
