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

	"github.com/sirupsen/logrus"

	"github.com/velorapay/velora/config"
	"github.com/velorapay/velora/internal/apierror"
	"github.com/velorapay/velora/model"
	"github.com/velorapay/velora/rail"
)

// Above this send amount the custodial rail is recommended regardless of
// cost, for its compliance coverage and support guarantees. Overridable
// through RecommendationConfig.
const defaultHighValueThreshold = 1000.0

func highValueThreshold() float64 {
	cnf, err := config.Fetch()
	if err != nil || cnf.Recommendation.LargeAmountThreshold <= 0 {
		return defaultHighValueThreshold
	}
	return cnf.Recommendation.LargeAmountThreshold
}

// CompareRails prices the transfer on every rail and recommends one. Rails
// that fail to produce an estimate are left out rather than failing the
// comparison; if none can serve the amount an error is returned. A caller
// preference wins whenever that rail is available.
func (v *Velora) CompareRails(ctx context.Context, amount float64, sourceCurrency, destCurrency string, preferred model.Rail) (*model.Recommendation, error) {
	if amount <= 0 {
		return nil, apierror.NewAPIError(apierror.ErrValidation,
			"sendAmount must be positive",
			fmt.Sprintf("rail comparison requested for amount %v", amount))
	}

	options := make([]model.RailCostEstimate, 0, 2)
	for _, adapter := range []rail.Adapter{v.adapters.Custodial, v.adapters.Ledger} {
		estimate, err := adapter.EstimateCost(ctx, amount, sourceCurrency, destCurrency)
		if err != nil {
			logrus.Infof("rail %s excluded from comparison: %v", adapter.Rail(), err)
			continue
		}
		if !estimate.Available {
			continue
		}
		options = append(options, *estimate)
	}
	if len(options) == 0 {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer,
			"no rail can serve this transfer right now",
			fmt.Sprintf("all rails failed to estimate %v %s -> %s", amount, sourceCurrency, destCurrency))
	}

	chosen, reason := pickRail(options, amount, preferred)

	recommendation := &model.Recommendation{
		Options:           options,
		RecommendedMethod: chosen.Rail,
		Reason:            reason,
	}
	for i := range options {
		if options[i].Rail == chosen.Rail {
			continue
		}
		if savings := options[i].TotalCost - chosen.TotalCost; savings > recommendation.CostSavings {
			recommendation.CostSavings = savings
		}
		if saved := options[i].EstimatedCompletion - chosen.EstimatedCompletion; saved > recommendation.TimeSavings {
			recommendation.TimeSavings = saved
		}
	}
	return recommendation, nil
}

func pickRail(options []model.RailCostEstimate, amount float64, preferred model.Rail) (model.RailCostEstimate, string) {
	if preferred != "" {
		for _, opt := range options {
			if opt.Rail == preferred {
				return opt, fmt.Sprintf("caller preference for the %s rail honored", preferred)
			}
		}
	}

	if threshold := highValueThreshold(); amount >= threshold {
		for _, opt := range options {
			if opt.Rail == model.RailCustodial {
				return opt, fmt.Sprintf("amounts of %v and above route through the custodial rail for compliance coverage", threshold)
			}
		}
	}

	cheapest := options[0]
	for _, opt := range options[1:] {
		if opt.TotalCost < cheapest.TotalCost {
			cheapest = opt
		}
	}
	return cheapest, fmt.Sprintf("the %s rail is the lowest total cost for this amount", cheapest.Rail)
}
