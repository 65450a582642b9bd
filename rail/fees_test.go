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

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velorapay/velora/config"
	"github.com/velorapay/velora/internal/apierror"
	"github.com/velorapay/velora/model"
)

func testFeesConfig() config.FeesConfig {
	return config.FeesConfig{
		ProcessingPercent: 2.9,
		ProcessingFixed:   0.30,
		ExchangePercent:   0.5,
		CustodialNetwork:  2.50,
	}
}

func TestBreakdownCustodialScenario(t *testing.T) {
	calc := NewFeeCalculator(testFeesConfig(), nil)

	fees, err := calc.Breakdown(context.Background(), 100, model.RailCustodial)
	require.NoError(t, err)

	assert.Equal(t, 3.20, fees.Processing)
	assert.Equal(t, 2.50, fees.Network)
	assert.Equal(t, 0.50, fees.Exchange)
	assert.Equal(t, 6.20, fees.Total)
}

func TestBreakdownAdditivity(t *testing.T) {
	calc := NewFeeCalculator(testFeesConfig(), nil)

	for i := 0; i < 50; i++ {
		amount := gofakeit.Float64Range(0.01, 50000)
		fees, err := calc.Breakdown(context.Background(), amount, model.RailCustodial)
		require.NoError(t, err)

		sum := decimal.NewFromFloat(fees.Processing).
			Add(decimal.NewFromFloat(fees.Network)).
			Add(decimal.NewFromFloat(fees.Exchange))
		assert.True(t, sum.Equal(decimal.NewFromFloat(fees.Total)),
			"total %v != sum %v for amount %v", fees.Total, sum, amount)
		assert.GreaterOrEqual(t, fees.Processing, 0.0)
		assert.GreaterOrEqual(t, fees.Network, 0.0)
		assert.GreaterOrEqual(t, fees.Exchange, 0.0)
	}
}

func TestBreakdownLedgerUsesLiveNetworkFee(t *testing.T) {
	networkFee := func(ctx context.Context, r model.Rail) (float64, error) {
		return 0.42, nil
	}
	calc := NewFeeCalculator(testFeesConfig(), networkFee)

	fees, err := calc.Breakdown(context.Background(), 100, model.RailLedger)
	require.NoError(t, err)
	assert.Equal(t, 0.42, fees.Network)
	assert.Equal(t, 4.12, fees.Total)
}

func TestBreakdownRejectsNonPositiveAmount(t *testing.T) {
	calc := NewFeeCalculator(testFeesConfig(), nil)

	_, err := calc.Breakdown(context.Background(), 0, model.RailCustodial)
	require.Error(t, err)
	assert.Equal(t, apierror.ErrValidation, apierror.CodeOf(err))

	_, err = calc.Breakdown(context.Background(), -5, model.RailCustodial)
	require.Error(t, err)
	assert.Equal(t, apierror.ErrValidation, apierror.CodeOf(err))
}

func TestBreakdownUnknownRail(t *testing.T) {
	calc := NewFeeCalculator(testFeesConfig(), nil)

	_, err := calc.Breakdown(context.Background(), 100, model.Rail("carrier-pigeon"))
	require.Error(t, err)
	assert.Equal(t, apierror.ErrValidation, apierror.CodeOf(err))
}
