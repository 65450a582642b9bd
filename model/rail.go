package model

import "time"

// External entity statuses shared by both rails. Providers use their own
// vocabularies; adapters normalize to these.
const (
	ExternalStatusPending   = "PENDING"
	ExternalStatusConfirmed = "CONFIRMED"
	ExternalStatusFailed    = "FAILED"
)

// CardDetails is the card input for a custodial payment. Only plausibility
// is checked locally; the provider performs the real authorization.
type CardDetails struct {
	Number      string `json:"number"`
	CVV         string `json:"cvv"`
	ExpMonth    int    `json:"exp_month"`
	ExpYear     int    `json:"exp_year"`
	BillingName string `json:"billing_name"`
	Country     string `json:"country"`
}

// Payment is a card charge on the custodial rail.
type Payment struct {
	PaymentID string    `json:"id"`
	Status    string    `json:"status"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}

// Wallet is a custody account holding value mid-transfer. RecoveryPhrase
// and EncryptedKey are populated only on ledger wallets at creation time
// and are never persisted in cleartext.
type Wallet struct {
	WalletID       string `json:"id"`
	OwnerID        string `json:"owner_id"`
	Address        string `json:"address"`
	RecoveryPhrase string `json:"recovery_phrase,omitempty"`
	EncryptedKey   string `json:"encrypted_key,omitempty"`
}

// Movement is a wallet-to-wallet fund movement inside a rail's custody.
type Movement struct {
	MovementID string  `json:"id"`
	Status     string  `json:"status"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
}

// Payout is the final fiat disbursement to the recipient's bank account.
type Payout struct {
	PayoutID string  `json:"id"`
	Status   string  `json:"status"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// LedgerBalance is the balance view of an on-chain address. USD equivalents
// are omitted (nil) when the rate lookup failed.
type LedgerBalance struct {
	Native        float64  `json:"native"`
	Stablecoin    float64  `json:"stablecoin"`
	NativeUSD     *float64 `json:"native_usd,omitempty"`
	StablecoinUSD *float64 `json:"stablecoin_usd,omitempty"`
}

// GasEstimate is the simulation-derived cost of a ledger transfer.
type GasEstimate struct {
	GasLimit     uint64  `json:"gas_limit"`
	GasPriceWei  uint64  `json:"gas_price_wei"`
	TotalCost    float64 `json:"total_cost"`
	TotalCostUSD float64 `json:"total_cost_usd"`
}

// LedgerTransfer is an initiated on-chain transfer.
type LedgerTransfer struct {
	TransferRef string      `json:"transfer_ref"`
	TxHash      string      `json:"tx_hash,omitempty"`
	Status      string      `json:"status"`
	GasEstimate GasEstimate `json:"gas_estimate"`
}

// LedgerTransferStatus is the confirmation view of an on-chain transfer.
// TimedOut marks a monitor loop that gave up before a terminal state.
type LedgerTransferStatus struct {
	Status        string   `json:"status"`
	Confirmations uint64   `json:"confirmations"`
	BlockNumber   *uint64  `json:"block_number,omitempty"`
	GasUsed       *uint64  `json:"gas_used,omitempty"`
	GasCostUSD    *float64 `json:"gas_cost_usd,omitempty"`
	TimedOut      bool     `json:"timed_out,omitempty"`
}
