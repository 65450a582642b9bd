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
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/velorapay/velora/config"
	"github.com/velorapay/velora/internal/apierror"
	"github.com/velorapay/velora/internal/request"
	"github.com/velorapay/velora/internal/retry"
	"github.com/velorapay/velora/model"
)

const (
	confirmationPollInterval    = 2 * time.Second
	custodialCompletionEstimate = time.Hour
)

var cardNumberPattern = regexp.MustCompile(`^[0-9]{13,19}$`)
var cvvPattern = regexp.MustCompile(`^[0-9]{3,4}$`)

// Provider error codes that are semantically final. These never enter the
// retry loop; everything unclassified is treated as transient.
var finalProviderCodes = map[string]bool{
	"card_declined":      true,
	"insufficient_funds": true,
	"validation_error":   true,
	"entity_not_found":   true,
}

// CustodialRail drives the custodial payments provider end to end: card
// charge, custody wallets, internal movement, bank payout. Transient
// provider failures are retried with bounded exponential backoff; final
// failures propagate on the first attempt.
type CustodialRail struct {
	conf    config.CustodialRailConfig
	fees    *FeeCalculator
	policy  retry.Policy
	timeout time.Duration
}

func NewCustodialRail(conf *config.Configuration) *CustodialRail {
	timeout := time.Duration(conf.Rails.Custodial.TimeoutSec) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &CustodialRail{
		conf:    conf.Rails.Custodial,
		fees:    NewFeeCalculator(conf.Fees, nil),
		policy:  retry.PolicyFromConfig(conf.Retry),
		timeout: timeout,
	}
}

func (c *CustodialRail) Rail() model.Rail {
	return model.RailCustodial
}

// classifyProvider decides whether a provider failure may be retried.
// Validation failures and semantically final provider responses attempt
// exactly once.
func classifyProvider(err error) retry.Classification {
	switch apierror.CodeOf(err) {
	case apierror.ErrValidation, apierror.ErrBadRequest:
		return retry.Classification{Retryable: false, Kind: retry.KindValidation}
	case apierror.ErrFinalProvider, apierror.ErrNotFound:
		return retry.Classification{Retryable: false, Kind: retry.KindFinal}
	default:
		return retry.Classification{Retryable: true, Kind: retry.KindTransient}
	}
}

type providerErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type paymentResponse struct {
	ID        string  `json:"id"`
	Status    string  `json:"status"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	CreatedAt string  `json:"created_at"`
	providerErrorBody
}

type walletResponse struct {
	ID      string `json:"id"`
	Address string `json:"address"`
	providerErrorBody
}

type movementResponse struct {
	ID       string  `json:"id"`
	Status   string  `json:"status"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	providerErrorBody
}

type payoutResponse struct {
	ID       string  `json:"id"`
	Status   string  `json:"status"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	providerErrorBody
}

type statusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	providerErrorBody
}

// callProvider posts payload to the provider and decodes into out. HTTP and
// provider-body errors are normalized into the apierror taxonomy so the
// retry classifier can act on them.
func (c *CustodialRail) callProvider(ctx context.Context, method, path string, payload interface{}, out interface{}, errBody *providerErrorBody) error {
	var body *http.Request
	var err error
	url := strings.TrimRight(c.conf.BaseURL, "/") + path

	if payload != nil {
		jsonBody, jsonErr := request.ToJsonReq(payload)
		if jsonErr != nil {
			return jsonErr
		}
		body, err = http.NewRequestWithContext(ctx, method, url, jsonBody)
	} else {
		body, err = http.NewRequestWithContext(ctx, method, url, nil)
	}
	if err != nil {
		return err
	}
	body.Header.Set("Authorization", "Bearer "+c.conf.APIKey)

	resp, err := request.CallWithTimeout(body, out, c.timeout)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrTransient,
			"custodial provider unreachable", err.Error())
	}

	if resp.StatusCode >= 400 {
		code := errBody.Error.Code
		message := errBody.Error.Message
		if message == "" {
			message = fmt.Sprintf("custodial provider returned %d", resp.StatusCode)
		}
		if finalProviderCodes[code] {
			return apierror.NewAPIError(apierror.ErrFinalProvider,
				userSafeProviderMessage(code), fmt.Sprintf("provider error %s: %s", code, message))
		}
		if resp.StatusCode == http.StatusNotFound {
			return apierror.NewAPIError(apierror.ErrNotFound, message, message)
		}
		return apierror.NewAPIError(apierror.ErrTransient, message,
			fmt.Sprintf("provider error %s (%d): %s", code, resp.StatusCode, message))
	}
	return nil
}

// userSafeProviderMessage maps final provider codes to messages fit for the
// end user, distinct from the raw provider text.
func userSafeProviderMessage(code string) string {
	switch code {
	case "card_declined":
		return "The card was declined. Please try a different card."
	case "insufficient_funds":
		return "The card has insufficient funds for this transfer."
	case "entity_not_found":
		return "The referenced account could not be found."
	default:
		return "The payment could not be completed."
	}
}

func validateCard(card model.CardDetails) error {
	var problems []string
	if !cardNumberPattern.MatchString(card.Number) {
		problems = append(problems, "card number is not plausible")
	}
	if !cvvPattern.MatchString(card.CVV) {
		problems = append(problems, "cvv is not plausible")
	}
	now := time.Now()
	expiry := time.Date(card.ExpYear, time.Month(card.ExpMonth)+1, 1, 0, 0, 0, 0, time.UTC)
	if card.ExpMonth < 1 || card.ExpMonth > 12 || !expiry.After(now) {
		problems = append(problems, "card expiry is in the past")
	}
	if strings.TrimSpace(card.BillingName) == "" {
		problems = append(problems, "billing name is required")
	}
	if strings.TrimSpace(card.Country) == "" {
		problems = append(problems, "billing country is required")
	}
	if len(problems) > 0 {
		return apierror.NewAPIError(apierror.ErrValidation,
			strings.Join(problems, "; "), fmt.Sprintf("card validation failed: %v", problems))
	}
	return nil
}

// CreatePayment charges the sender's card. Card plausibility is checked
// locally first; no provider call is made for malformed input.
func (c *CustodialRail) CreatePayment(ctx context.Context, amount float64, currency string, card model.CardDetails) (*model.Payment, error) {
	ctx, span := otel.Tracer("velora.rail.custodial").Start(ctx, "Create Payment")
	defer span.End()

	if amount <= 0 {
		return nil, apierror.NewAPIError(apierror.ErrValidation,
			"amount must be positive", fmt.Sprintf("payment requested for amount %v", amount))
	}
	if err := validateCard(card); err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"card": map[string]interface{}{
			"number":       card.Number,
			"cvv":          card.CVV,
			"exp_month":    card.ExpMonth,
			"exp_year":     card.ExpYear,
			"billing_name": card.BillingName,
			"country":      card.Country,
		},
	}

	var resp paymentResponse
	err := retry.Do(ctx, c.policy, classifyProvider, func() error {
		resp = paymentResponse{}
		return c.callProvider(ctx, "POST", "/v1/payments", payload, &resp, &resp.providerErrorBody)
	})
	if err != nil {
		return nil, err
	}

	return &model.Payment{
		PaymentID: resp.ID,
		Status:    normalizePaymentStatus(resp.Status),
		Amount:    resp.Amount,
		Currency:  resp.Currency,
		CreatedAt: time.Now(),
	}, nil
}

// WaitForConfirmation polls the payment until the provider reports a
// terminal state or maxWait elapses. A timeout is retryable from the
// caller's perspective.
func (c *CustodialRail) WaitForConfirmation(ctx context.Context, paymentID string, maxWait time.Duration) (*model.Payment, error) {
	deadline := time.Now().Add(maxWait)
	for {
		status, err := c.GetStatus(ctx, EntityPayment, paymentID)
		if err != nil {
			return nil, err
		}
		if status == model.ExternalStatusConfirmed || status == model.ExternalStatusFailed {
			return &model.Payment{PaymentID: paymentID, Status: status}, nil
		}
		if time.Now().After(deadline) {
			return nil, apierror.NewAPIError(apierror.ErrTransient,
				"payment confirmation timed out",
				fmt.Sprintf("payment %s still %s after %s", paymentID, status, maxWait))
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(confirmationPollInterval):
		}
	}
}

func (c *CustodialRail) CreateWallet(ctx context.Context, ownerID string) (*model.Wallet, error) {
	payload := map[string]interface{}{"owner_id": ownerID}

	var resp walletResponse
	err := retry.Do(ctx, c.policy, classifyProvider, func() error {
		resp = walletResponse{}
		return c.callProvider(ctx, "POST", "/v1/wallets", payload, &resp, &resp.providerErrorBody)
	})
	if err != nil {
		return nil, err
	}

	return &model.Wallet{WalletID: resp.ID, OwnerID: ownerID, Address: resp.Address}, nil
}

// CreateTransfer moves funds between two custody wallets. Source and
// destination must differ and the amount must be positive; invalid input
// fails immediately without a provider call.
func (c *CustodialRail) CreateTransfer(ctx context.Context, sourceWalletID, destWalletID string, amount float64, currency string) (*model.Movement, error) {
	ctx, span := otel.Tracer("velora.rail.custodial").Start(ctx, "Create Movement")
	defer span.End()

	if sourceWalletID == destWalletID {
		return nil, apierror.NewAPIError(apierror.ErrValidation,
			"source and destination wallets must differ",
			fmt.Sprintf("movement requested from %s to itself", sourceWalletID))
	}
	if amount <= 0 {
		return nil, apierror.NewAPIError(apierror.ErrValidation,
			"amount must be positive", fmt.Sprintf("movement requested for amount %v", amount))
	}
	if currency == "" {
		return nil, apierror.NewAPIError(apierror.ErrValidation,
			"currency is required", "movement requested without a currency")
	}

	payload := map[string]interface{}{
		"source_wallet_id":      sourceWalletID,
		"destination_wallet_id": destWalletID,
		"amount":                amount,
		"currency":              currency,
	}

	var resp movementResponse
	err := retry.Do(ctx, c.policy, classifyProvider, func() error {
		resp = movementResponse{}
		return c.callProvider(ctx, "POST", "/v1/transfers", payload, &resp, &resp.providerErrorBody)
	})
	if err != nil {
		return nil, err
	}

	return &model.Movement{
		MovementID: resp.ID,
		Status:     normalizeMovementStatus(resp.Status),
		Amount:     resp.Amount,
		Currency:   resp.Currency,
	}, nil
}

func (c *CustodialRail) CreatePayout(ctx context.Context, amount float64, currency, sourceWalletID string, bank model.Recipient) (*model.Payout, error) {
	ctx, span := otel.Tracer("velora.rail.custodial").Start(ctx, "Create Payout")
	defer span.End()

	if amount <= 0 {
		return nil, apierror.NewAPIError(apierror.ErrValidation,
			"amount must be positive", fmt.Sprintf("payout requested for amount %v", amount))
	}
	if bank.AccountNumber == "" || bank.BankCode == "" {
		return nil, apierror.NewAPIError(apierror.ErrValidation,
			"recipient bank account details are required",
			fmt.Sprintf("payout requested with incomplete bank details for %s", bank.Name))
	}

	payload := map[string]interface{}{
		"amount":           amount,
		"currency":         currency,
		"source_wallet_id": sourceWalletID,
		"payout_fee":       c.conf.PayoutFee,
		"bank_account": map[string]interface{}{
			"name":           bank.Name,
			"account_number": bank.AccountNumber,
			"bank_code":      bank.BankCode,
			"country":        bank.Country,
		},
	}

	var resp payoutResponse
	err := retry.Do(ctx, c.policy, classifyProvider, func() error {
		resp = payoutResponse{}
		return c.callProvider(ctx, "POST", "/v1/payouts", payload, &resp, &resp.providerErrorBody)
	})
	if err != nil {
		return nil, err
	}

	return &model.Payout{
		PayoutID: resp.ID,
		Status:   normalizePayoutStatus(resp.Status),
		Amount:   resp.Amount,
		Currency: resp.Currency,
	}, nil
}

func (c *CustodialRail) GetStatus(ctx context.Context, entityKind, externalID string) (string, error) {
	var path string
	switch entityKind {
	case EntityPayment:
		path = "/v1/payments/" + externalID
	case EntityMovement:
		path = "/v1/transfers/" + externalID
	case EntityPayout:
		path = "/v1/payouts/" + externalID
	default:
		return "", apierror.NewAPIError(apierror.ErrValidation,
			fmt.Sprintf("unknown entity kind %s", entityKind),
			fmt.Sprintf("status lookup for entity kind %q", entityKind))
	}

	var resp statusResponse
	err := retry.Do(ctx, c.policy, classifyProvider, func() error {
		resp = statusResponse{}
		return c.callProvider(ctx, "GET", path, nil, &resp, &resp.providerErrorBody)
	})
	if err != nil {
		return "", err
	}

	switch entityKind {
	case EntityPayment:
		return normalizePaymentStatus(resp.Status), nil
	case EntityMovement:
		return normalizeMovementStatus(resp.Status), nil
	default:
		return normalizePayoutStatus(resp.Status), nil
	}
}

// EstimateCost prices a transfer on the custodial rail. The rail serves any
// positive amount, so it is always listed as available. The provider's flat
// payout fee counts toward the all-in cost but is settled provider-side, so
// it stays out of the fee breakdown charged to the sender.
func (c *CustodialRail) EstimateCost(ctx context.Context, amount float64, sourceCurrency, destCurrency string) (*model.RailCostEstimate, error) {
	fees, err := c.fees.Breakdown(ctx, amount, model.RailCustodial)
	if err != nil {
		return nil, err
	}

	return &model.RailCostEstimate{
		Rail:                model.RailCustodial,
		Fees:                fees,
		TotalCost:           fees.Total + c.conf.PayoutFee,
		EstimatedCompletion: custodialCompletionEstimate,
		Benefits: []string{
			"regulated custody with compliance guarantees",
			"dedicated support and dispute resolution",
			"no on-chain exposure for sender or recipient",
		},
		Limitations: []string{
			"slower settlement than on-chain transfers",
			"higher processing fees on small amounts",
		},
		Available: true,
	}, nil
}

func normalizePaymentStatus(providerStatus string) string {
	switch strings.ToLower(providerStatus) {
	case "confirmed", "complete", "paid":
		return model.ExternalStatusConfirmed
	case "failed", "canceled", "cancelled":
		return model.ExternalStatusFailed
	default:
		return model.ExternalStatusPending
	}
}

func normalizeMovementStatus(providerStatus string) string {
	switch strings.ToLower(providerStatus) {
	case "complete", "completed":
		return model.ExternalStatusConfirmed
	case "failed":
		return model.ExternalStatusFailed
	default:
		return model.ExternalStatusPending
	}
}

func normalizePayoutStatus(providerStatus string) string {
	switch strings.ToLower(providerStatus) {
	case "complete", "completed", "paid":
		return model.ExternalStatusConfirmed
	case "failed":
		return model.ExternalStatusFailed
	default:
		return model.ExternalStatusPending
	}
}
