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
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velorapay/velora/config"
	"github.com/velorapay/velora/internal/apierror"
	"github.com/velorapay/velora/internal/retry"
	"github.com/velorapay/velora/model"
)

const testProviderBase = "http://custodial.provider"

func newTestCustodialRail() *CustodialRail {
	return &CustodialRail{
		conf: config.CustodialRailConfig{
			BaseURL:   testProviderBase,
			APIKey:    "test-key",
			PayoutFee: 1.25,
		},
		fees: NewFeeCalculator(testFeesConfig(), nil),
		policy: retry.Policy{
			MaxAttempts: 3,
			BaseDelay:   time.Millisecond,
			MaxDelay:    5 * time.Millisecond,
		},
		timeout: 5 * time.Second,
	}
}

func validCard() model.CardDetails {
	return model.CardDetails{
		Number:      "4242424242424242",
		CVV:         "123",
		ExpMonth:    12,
		ExpYear:     time.Now().Year() + 2,
		BillingName: "Ada Obi",
		Country:     "NG",
	}
}

func TestCreatePaymentSuccess(t *testing.T) {
	rail := newTestCustodialRail()
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", testProviderBase+"/v1/payments",
		httpmock.NewJsonResponderOrPanic(201, map[string]interface{}{
			"id":       "pay_123",
			"status":   "pending",
			"amount":   100.0,
			"currency": "USD",
		}))

	payment, err := rail.CreatePayment(context.Background(), 100, "USD", validCard())
	require.NoError(t, err)
	assert.Equal(t, "pay_123", payment.PaymentID)
	assert.Equal(t, model.ExternalStatusPending, payment.Status)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestCreatePaymentInvalidCardNoProviderCall(t *testing.T) {
	rail := newTestCustodialRail()
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	tests := []struct {
		name string
		card model.CardDetails
	}{
		{"short number", func() model.CardDetails { c := validCard(); c.Number = "4242"; return c }()},
		{"bad cvv", func() model.CardDetails { c := validCard(); c.CVV = "12"; return c }()},
		{"expired", func() model.CardDetails { c := validCard(); c.ExpYear = 2020; return c }()},
		{"no billing name", func() model.CardDetails { c := validCard(); c.BillingName = ""; return c }()},
		{"no country", func() model.CardDetails { c := validCard(); c.Country = ""; return c }()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rail.CreatePayment(context.Background(), 100, "USD", tt.card)
			require.Error(t, err)
			assert.Equal(t, apierror.ErrValidation, apierror.CodeOf(err))
		})
	}
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestCreatePaymentCardDeclinedNoRetry(t *testing.T) {
	rail := newTestCustodialRail()
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", testProviderBase+"/v1/payments",
		httpmock.NewJsonResponderOrPanic(402, map[string]interface{}{
			"error": map[string]string{
				"code":    "card_declined",
				"message": "issuer declined transaction 05",
			},
		}))

	_, err := rail.CreatePayment(context.Background(), 100, "USD", validCard())
	require.Error(t, err)
	assert.Equal(t, apierror.ErrFinalProvider, apierror.CodeOf(err))
	assert.False(t, apierror.IsRetryable(err))
	assert.Equal(t, 1, httpmock.GetTotalCallCount(), "final provider errors must attempt exactly once")

	var apiErr apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.NotContains(t, apiErr.Message, "issuer declined", "raw provider message must not leak to users")
}

func TestCreatePaymentTransientBoundedRetry(t *testing.T) {
	rail := newTestCustodialRail()
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", testProviderBase+"/v1/payments",
		httpmock.NewJsonResponderOrPanic(503, map[string]interface{}{
			"error": map[string]string{"code": "provider_overloaded", "message": "try again"},
		}))

	_, err := rail.CreatePayment(context.Background(), 100, "USD", validCard())
	require.Error(t, err)
	assert.True(t, apierror.IsRetryable(err))
	assert.Equal(t, 3, httpmock.GetTotalCallCount(), "transient errors retry up to the attempt bound")
}

func TestCreatePaymentTransientRecovers(t *testing.T) {
	rail := newTestCustodialRail()
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	calls := 0
	httpmock.RegisterResponder("POST", testProviderBase+"/v1/payments",
		func(req *http.Request) (*http.Response, error) {
			calls++
			if calls < 3 {
				return httpmock.NewJsonResponse(503, map[string]interface{}{
					"error": map[string]string{"code": "provider_overloaded", "message": "try again"},
				})
			}
			return httpmock.NewJsonResponse(201, map[string]interface{}{
				"id": "pay_456", "status": "pending", "amount": 100.0, "currency": "USD",
			})
		})

	payment, err := rail.CreatePayment(context.Background(), 100, "USD", validCard())
	require.NoError(t, err)
	assert.Equal(t, "pay_456", payment.PaymentID)
	assert.Equal(t, 3, calls)
}

func TestWaitForConfirmation(t *testing.T) {
	rail := newTestCustodialRail()
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", testProviderBase+"/v1/payments/pay_123",
		httpmock.NewJsonResponderOrPanic(200, map[string]interface{}{
			"id": "pay_123", "status": "confirmed",
		}))

	payment, err := rail.WaitForConfirmation(context.Background(), "pay_123", time.Second)
	require.NoError(t, err)
	assert.Equal(t, model.ExternalStatusConfirmed, payment.Status)
}

func TestCreateTransferValidation(t *testing.T) {
	rail := newTestCustodialRail()
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	_, err := rail.CreateTransfer(context.Background(), "wal_1", "wal_1", 100, "USD")
	require.Error(t, err)
	assert.Equal(t, apierror.ErrValidation, apierror.CodeOf(err))

	_, err = rail.CreateTransfer(context.Background(), "wal_1", "wal_2", -1, "USD")
	require.Error(t, err)
	assert.Equal(t, apierror.ErrValidation, apierror.CodeOf(err))

	_, err = rail.CreateTransfer(context.Background(), "wal_1", "wal_2", 100, "")
	require.Error(t, err)
	assert.Equal(t, apierror.ErrValidation, apierror.CodeOf(err))

	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestCreatePayoutRequiresBankDetails(t *testing.T) {
	rail := newTestCustodialRail()
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	_, err := rail.CreatePayout(context.Background(), 100, "EUR", "wal_1", model.Recipient{Name: "Ada Obi"})
	require.Error(t, err)
	assert.Equal(t, apierror.ErrValidation, apierror.CodeOf(err))
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestEstimateCostCustodialAlwaysAvailable(t *testing.T) {
	rail := newTestCustodialRail()

	estimate, err := rail.EstimateCost(context.Background(), 100, "USD", "EUR")
	require.NoError(t, err)
	assert.True(t, estimate.Available)
	assert.Equal(t, model.RailCustodial, estimate.Rail)
	assert.Equal(t, 6.20, estimate.Fees.Total)
	assert.InDelta(t, 7.45, estimate.TotalCost, 1e-9, "all-in cost includes the provider's flat payout fee")
	assert.Equal(t, custodialCompletionEstimate, estimate.EstimatedCompletion)
}
