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
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jarcoal/httpmock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velorapay/velora/config"
	"github.com/velorapay/velora/internal/apierror"
)

func newTestQuoter(t *testing.T) (*RateQuoter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	conf := config.RatesConfig{
		PrimaryURL:      "http://rates.primary/latest",
		FallbackURL:     "http://rates.fallback/latest",
		QuoteTTLMinutes: 10,
	}
	fees := NewFeeCalculator(testFeesConfig(), nil)
	return NewRateQuoter(conf, fees, client), mr
}

func TestGetRateSameCurrencyNoLookup(t *testing.T) {
	quoter, _ := newTestQuoter(t)
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	// no responders registered; any lookup would fail

	for _, code := range []string{"USD", "EUR", "NGN"} {
		rate, err := quoter.GetRate(context.Background(), code, code)
		require.NoError(t, err)
		assert.Equal(t, 1.0, rate)
	}
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestGetRatePrimarySource(t *testing.T) {
	quoter, _ := newTestQuoter(t)
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", "http://rates.primary/latest",
		httpmock.NewJsonResponderOrPanic(200, map[string]interface{}{
			"rates": map[string]float64{"EUR": 0.85},
		}))

	rate, err := quoter.GetRate(context.Background(), "USD", "EUR")
	require.NoError(t, err)
	assert.Equal(t, 0.85, rate)
}

func TestGetRateFallsBack(t *testing.T) {
	quoter, _ := newTestQuoter(t)
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", "http://rates.primary/latest",
		httpmock.NewStringResponder(503, "unavailable"))
	httpmock.RegisterResponder("GET", "http://rates.fallback/latest",
		httpmock.NewJsonResponderOrPanic(200, map[string]interface{}{
			"rates": map[string]float64{"EUR": 0.84},
		}))

	rate, err := quoter.GetRate(context.Background(), "USD", "EUR")
	require.NoError(t, err)
	assert.Equal(t, 0.84, rate)
}

func TestGetRateBothSourcesFail(t *testing.T) {
	quoter, _ := newTestQuoter(t)
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", "http://rates.primary/latest",
		httpmock.NewStringResponder(503, "unavailable"))
	httpmock.RegisterResponder("GET", "http://rates.fallback/latest",
		httpmock.NewStringResponder(503, "unavailable"))

	_, err := quoter.GetRate(context.Background(), "USD", "XXX")
	require.Error(t, err)
	assert.Equal(t, apierror.ErrRateUnavailable, apierror.CodeOf(err))
}

func TestLockRateAndGetQuote(t *testing.T) {
	quoter, _ := newTestQuoter(t)
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", "http://rates.primary/latest",
		httpmock.NewJsonResponderOrPanic(200, map[string]interface{}{
			"rates": map[string]float64{"EUR": 0.85},
		}))

	quote, err := quoter.LockRate(context.Background(), "USD", "EUR", 100)
	require.NoError(t, err)
	assert.Equal(t, 0.85, quote.Rate)
	assert.Equal(t, 85.0, quote.ReceiveAmount)
	assert.True(t, quote.Valid(time.Now()))

	fetched, err := quoter.GetQuote(context.Background(), quote.QuoteID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, quote.QuoteID, fetched.QuoteID)
	assert.Equal(t, quote.Rate, fetched.Rate)
}

func TestGetQuoteExpired(t *testing.T) {
	quoter, mr := newTestQuoter(t)
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", "http://rates.primary/latest",
		httpmock.NewJsonResponderOrPanic(200, map[string]interface{}{
			"rates": map[string]float64{"EUR": 0.85},
		}))

	quote, err := quoter.LockRate(context.Background(), "USD", "EUR", 100)
	require.NoError(t, err)

	mr.FastForward(11 * time.Minute)

	fetched, err := quoter.GetQuote(context.Background(), quote.QuoteID)
	require.NoError(t, err)
	assert.Nil(t, fetched)
}

func TestGetQuoteNeverExisted(t *testing.T) {
	quoter, _ := newTestQuoter(t)

	fetched, err := quoter.GetQuote(context.Background(), "qt_does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, fetched)
}

func TestLockRateRejectsNonPositiveAmount(t *testing.T) {
	quoter, _ := newTestQuoter(t)

	_, err := quoter.LockRate(context.Background(), "USD", "EUR", 0)
	require.Error(t, err)
	assert.Equal(t, apierror.ErrValidation, apierror.CodeOf(err))
}
