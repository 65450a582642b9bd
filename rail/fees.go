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
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/velorapay/velora/config"
	"github.com/velorapay/velora/internal/apierror"
	"github.com/velorapay/velora/model"
)

// NetworkFeeFunc supplies the live network fee for a rail, in send-currency
// units. The ledger rail binds this to a gas estimate; the custodial rail
// uses its configured fixed fee.
type NetworkFeeFunc func(ctx context.Context, r model.Rail) (float64, error)

// FeeCalculator computes the processing/network/exchange fee split for an
// amount on a given rail. All arithmetic runs on decimals and each component
// is rounded exactly once, so the total is always the exact sum of the
// parts.
type FeeCalculator struct {
	conf       config.FeesConfig
	networkFee NetworkFeeFunc
}

func NewFeeCalculator(conf config.FeesConfig, networkFee NetworkFeeFunc) *FeeCalculator {
	return &FeeCalculator{conf: conf, networkFee: networkFee}
}

// Breakdown computes the fee split for amount on rail r.
func (f *FeeCalculator) Breakdown(ctx context.Context, amount float64, r model.Rail) (model.FeeBreakdown, error) {
	if amount <= 0 {
		return model.FeeBreakdown{}, apierror.NewAPIError(apierror.ErrValidation,
			"amount must be positive", fmt.Sprintf("fee breakdown requested for amount %v", amount))
	}

	amt := decimal.NewFromFloat(amount)
	hundred := decimal.NewFromInt(100)

	processing := amt.Mul(decimal.NewFromFloat(f.conf.ProcessingPercent)).Div(hundred).
		Add(decimal.NewFromFloat(f.conf.ProcessingFixed)).Round(2)
	exchange := amt.Mul(decimal.NewFromFloat(f.conf.ExchangePercent)).Div(hundred).Round(2)

	network, err := f.railNetworkFee(ctx, r)
	if err != nil {
		return model.FeeBreakdown{}, err
	}
	networkDec := decimal.NewFromFloat(network).Round(2)

	total := processing.Add(networkDec).Add(exchange)

	breakdown := model.FeeBreakdown{
		Processing: processing.InexactFloat64(),
		Network:    networkDec.InexactFloat64(),
		Exchange:   exchange.InexactFloat64(),
		Total:      total.InexactFloat64(),
	}
	return breakdown, nil
}

func (f *FeeCalculator) railNetworkFee(ctx context.Context, r model.Rail) (float64, error) {
	switch r {
	case model.RailCustodial:
		return f.conf.CustodialNetwork, nil
	case model.RailLedger:
		if f.networkFee == nil {
			return 0, nil
		}
		return f.networkFee(ctx, r)
	default:
		return 0, apierror.NewAPIError(apierror.ErrValidation,
			fmt.Sprintf("unknown rail %s", r), fmt.Sprintf("fee breakdown requested for rail %q", r))
	}
}
