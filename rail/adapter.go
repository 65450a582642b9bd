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
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/velorapay/velora/config"
	"github.com/velorapay/velora/internal/apierror"
	"github.com/velorapay/velora/model"
)

// Entity kinds a rail can report status for.
const (
	EntityPayment  = "payment"
	EntityMovement = "movement"
	EntityPayout   = "payout"
)

// Adapter is the capability set both settlement rails expose. The
// orchestrator drives a transfer through exactly one adapter, chosen by
// model.Rail at creation time.
type Adapter interface {
	Rail() model.Rail

	// CreatePayment charges the sender's card. Malformed card input fails
	// fast with a validation error before any provider call.
	CreatePayment(ctx context.Context, amount float64, currency string, card model.CardDetails) (*model.Payment, error)

	// WaitForConfirmation blocks until the payment reaches a terminal
	// provider state or maxWait elapses. A timeout surfaces as retryable.
	WaitForConfirmation(ctx context.Context, paymentID string, maxWait time.Duration) (*model.Payment, error)

	// CreateWallet provisions a custody account for one participant.
	CreateWallet(ctx context.Context, ownerID string) (*model.Wallet, error)

	// CreateTransfer moves funds between two custody wallets.
	CreateTransfer(ctx context.Context, sourceWalletID, destWalletID string, amount float64, currency string) (*model.Movement, error)

	// CreatePayout disburses fiat to the recipient's bank account.
	CreatePayout(ctx context.Context, amount float64, currency, sourceWalletID string, bank model.Recipient) (*model.Payout, error)

	// GetStatus reports the provider status of a payment, movement or
	// payout by its external id.
	GetStatus(ctx context.Context, entityKind, externalID string) (string, error)

	// EstimateCost prices a prospective transfer on this rail.
	EstimateCost(ctx context.Context, amount float64, sourceCurrency, destCurrency string) (*model.RailCostEstimate, error)
}

// Adapters bundles both rails for components that compare or select
// between them.
type Adapters struct {
	Custodial Adapter
	Ledger    Adapter
}

// Get resolves a rail enum to its adapter.
func (a *Adapters) Get(r model.Rail) (Adapter, error) {
	switch r {
	case model.RailCustodial:
		return a.Custodial, nil
	case model.RailLedger:
		return a.Ledger, nil
	default:
		return nil, apierror.NewAPIError(apierror.ErrValidation,
			fmt.Sprintf("unknown rail %s", r), fmt.Sprintf("adapter lookup for rail %q", r))
	}
}

// NewAdapters wires both rail adapters from config. The ledger rail reuses
// the custodial provider for card acquiring and fiat payout; only the
// settlement leg differs.
func NewAdapters(conf *config.Configuration, redisClient redis.UniversalClient) *Adapters {
	custodial := NewCustodialRail(conf)
	quoter := NewRateQuoter(conf.Rates, NewFeeCalculator(conf.Fees, nil), redisClient)
	ledger := NewLedgerRail(conf, custodial, quoter, NewLocalSigner(conf.Rails.Ledger.ChainID))
	return &Adapters{Custodial: custodial, Ledger: ledger}
}
