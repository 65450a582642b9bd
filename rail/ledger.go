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
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/velorapay/velora/config"
	"github.com/velorapay/velora/internal/apierror"
	"github.com/velorapay/velora/internal/request"
	"github.com/velorapay/velora/model"
)

const (
	ledgerCompletionEstimate = 5 * time.Minute
	defaultPollInterval      = 5 * time.Second

	// balanceOf(address) selector
	erc20BalanceOfSelector = "0x70a08231"

	weiPerEther = 1e18
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// IsValidAddress reports whether the input is a well-formed 20-byte hex
// address. It is pure: malformed input of any shape returns false, never an
// error.
func IsValidAddress(address string) bool {
	return addressPattern.MatchString(address)
}

// TransferTx is the unsigned transaction handed to a Signer.
type TransferTx struct {
	From      string
	To        string
	Token     string // empty for a native-value transfer
	AmountWei *big.Int
	GasLimit  uint64
	GasPrice  uint64
	Nonce     uint64
	ChainID   int64
}

// Signer turns an unsigned transfer into a broadcastable raw transaction.
// Production binds this to a key-management system; tests and development
// use the deterministic local signer.
type Signer interface {
	SignTransfer(ctx context.Context, tx TransferTx) (rawTx string, txHash string, err error)
}

// LocalSigner derives signatures from the transaction content alone. It is
// a development stand-in, not custody-grade key management.
type LocalSigner struct {
	chainID int64
}

func NewLocalSigner(chainID int64) *LocalSigner {
	return &LocalSigner{chainID: chainID}
}

func (s *LocalSigner) SignTransfer(_ context.Context, tx TransferTx) (string, string, error) {
	encoded, err := json.Marshal(tx)
	if err != nil {
		return "", "", err
	}
	digest := sha256.Sum256(append(encoded, byte(s.chainID)))
	raw := "0x" + hex.EncodeToString(encoded)
	hash := "0x" + hex.EncodeToString(digest[:])
	return raw, hash, nil
}

type ledgerTxRecord struct {
	TxHash string
	From   string
}

// LedgerRail settles transfers over an L2 blockchain via JSON-RPC. Card
// acquiring and fiat payout still ride the custodial provider; only the
// custody movement happens on-chain.
type LedgerRail struct {
	conf   config.LedgerRailConfig
	onramp *CustodialRail
	quoter *RateQuoter
	signer Signer
	fees   *FeeCalculator
	poll   time.Duration

	mu        sync.RWMutex
	wallets   map[string]*model.Wallet
	transfers map[string]*ledgerTxRecord
}

func NewLedgerRail(conf *config.Configuration, onramp *CustodialRail, quoter *RateQuoter, signer Signer) *LedgerRail {
	poll := time.Duration(conf.Rails.Ledger.PollIntervalSec) * time.Second
	if poll == 0 {
		poll = defaultPollInterval
	}
	l := &LedgerRail{
		conf:      conf.Rails.Ledger,
		onramp:    onramp,
		quoter:    quoter,
		signer:    signer,
		poll:      poll,
		wallets:   make(map[string]*model.Wallet),
		transfers: make(map[string]*ledgerTxRecord),
	}
	l.fees = NewFeeCalculator(conf.Fees, l.networkFeeUSD)
	return l
}

func (l *LedgerRail) Rail() model.Rail {
	return model.RailLedger
}

type rpcRequest struct {
	JsonRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (l *LedgerRail) rpcCall(ctx context.Context, method string, params []interface{}, result interface{}) error {
	payload, err := request.ToJsonReq(rpcRequest{JsonRPC: "2.0", Method: method, Params: params, ID: 1})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", l.conf.RpcURL, payload)
	if err != nil {
		return err
	}

	var resp rpcResponse
	httpResp, err := request.Call(req, &resp)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrTransient, "ledger rpc unreachable", err.Error())
	}
	if httpResp.StatusCode >= 400 {
		return apierror.NewAPIError(apierror.ErrTransient,
			"ledger rpc error", fmt.Sprintf("%s returned %d", method, httpResp.StatusCode))
	}
	if resp.Error != nil {
		return apierror.NewAPIError(apierror.ErrTransient,
			"ledger rpc error", fmt.Sprintf("%s failed: %d %s", method, resp.Error.Code, resp.Error.Message))
	}
	if result != nil && resp.Result != nil {
		return json.Unmarshal(resp.Result, result)
	}
	return nil
}

func parseHexBig(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimPrefix(s, "0x"), 16)
	if !ok {
		return nil, fmt.Errorf("malformed hex quantity %q", s)
	}
	return v, nil
}

func parseHexUint(s string) (uint64, error) {
	v, err := parseHexBig(s)
	if err != nil {
		return 0, err
	}
	return v.Uint64(), nil
}

func weiToEther(wei *big.Int) float64 {
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(weiPerEther)).Float64()
	return f
}

func etherToWei(amount float64) *big.Int {
	wei, _ := new(big.Float).Mul(big.NewFloat(amount), big.NewFloat(weiPerEther)).Int(nil)
	return wei
}

// GetBalance reads an address's native and stablecoin balances. A
// stablecoin lookup failure degrades to zero, and a failed USD rate lookup
// omits the USD fields; neither fails the whole call.
func (l *LedgerRail) GetBalance(ctx context.Context, address string) (*model.LedgerBalance, error) {
	if !IsValidAddress(address) {
		return nil, apierror.NewAPIError(apierror.ErrValidation,
			fmt.Sprintf("invalid address %s", address), fmt.Sprintf("balance lookup for malformed address %q", address))
	}

	var nativeHex string
	if err := l.rpcCall(ctx, "eth_getBalance", []interface{}{address, "latest"}, &nativeHex); err != nil {
		return nil, err
	}
	nativeWei, err := parseHexBig(nativeHex)
	if err != nil {
		return nil, err
	}

	balance := &model.LedgerBalance{Native: weiToEther(nativeWei)}

	stablecoin, err := l.stablecoinBalance(ctx, address)
	if err == nil {
		balance.Stablecoin = stablecoin
	}

	if nativeUSDRate, rateErr := l.quoter.GetRate(ctx, "ETH", "USD"); rateErr == nil {
		nativeUSD := balance.Native * nativeUSDRate
		stableUSD := balance.Stablecoin // stablecoin is USD-pegged
		balance.NativeUSD = &nativeUSD
		balance.StablecoinUSD = &stableUSD
	}

	return balance, nil
}

func (l *LedgerRail) stablecoinBalance(ctx context.Context, address string) (float64, error) {
	if l.conf.StablecoinContract == "" {
		return 0, fmt.Errorf("no stablecoin contract configured")
	}
	callData := erc20BalanceOfSelector + strings.Repeat("0", 24) + strings.TrimPrefix(address, "0x")
	callObj := map[string]string{"to": l.conf.StablecoinContract, "data": callData}

	var resultHex string
	if err := l.rpcCall(ctx, "eth_call", []interface{}{callObj, "latest"}, &resultHex); err != nil {
		return 0, err
	}
	raw, err := parseHexBig(resultHex)
	if err != nil {
		return 0, err
	}
	// USDC-style 6-decimal token
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(raw), big.NewFloat(1e6)).Float64()
	return f, nil
}

// EstimateTransferCost simulates the transfer to price its gas. Simulation
// failure falls back to the configured default gas limit instead of failing
// the estimate.
func (l *LedgerRail) EstimateTransferCost(ctx context.Context, from, to string, amount float64, token string) (*model.GasEstimate, error) {
	callObj := map[string]string{"from": from, "to": to}
	if token != "" {
		callObj["to"] = token
		callObj["data"] = erc20BalanceOfSelector // placeholder calldata keeps the simulation representative
	} else {
		callObj["value"] = "0x" + etherToWei(amount).Text(16)
	}

	gasLimit := l.conf.DefaultGasLimit
	var gasHex string
	if err := l.rpcCall(ctx, "eth_estimateGas", []interface{}{callObj}, &gasHex); err == nil {
		if estimated, parseErr := parseHexUint(gasHex); parseErr == nil {
			gasLimit = estimated
		}
	}

	var priceHex string
	if err := l.rpcCall(ctx, "eth_gasPrice", []interface{}{}, &priceHex); err != nil {
		return nil, err
	}
	gasPrice, err := parseHexUint(priceHex)
	if err != nil {
		return nil, err
	}

	totalWei := new(big.Int).Mul(new(big.Int).SetUint64(gasLimit), new(big.Int).SetUint64(gasPrice))
	totalCost := weiToEther(totalWei)

	totalCostUSD := 0.0
	if rate, rateErr := l.quoter.GetRate(ctx, "ETH", "USD"); rateErr == nil {
		totalCostUSD = totalCost * rate
	}

	return &model.GasEstimate{
		GasLimit:     gasLimit,
		GasPriceWei:  gasPrice,
		TotalCost:    totalCost,
		TotalCostUSD: totalCostUSD,
	}, nil
}

// LedgerTransferRequest asks for an on-chain movement of amount from one
// address to another, in the stablecoin unless Token overrides it.
type LedgerTransferRequest struct {
	From   string
	To     string
	Amount float64
	Token  string
}

// InitiateTransfer validates, preflights and broadcasts an on-chain
// transfer. Address problems fail fast as validation errors; an
// insufficient balance is final and nothing is broadcast.
func (l *LedgerRail) InitiateTransfer(ctx context.Context, req LedgerTransferRequest) (*model.LedgerTransfer, error) {
	ctx, span := otel.Tracer("velora.rail.ledger").Start(ctx, "Initiate Ledger Transfer")
	defer span.End()

	if !IsValidAddress(req.From) {
		return nil, apierror.NewAPIError(apierror.ErrValidation,
			fmt.Sprintf("invalid sender address %s", req.From),
			fmt.Sprintf("transfer requested from malformed address %q", req.From))
	}
	if !IsValidAddress(req.To) {
		return nil, apierror.NewAPIError(apierror.ErrValidation,
			fmt.Sprintf("invalid recipient address %s", req.To),
			fmt.Sprintf("transfer requested to malformed address %q", req.To))
	}
	if req.Amount <= 0 {
		return nil, apierror.NewAPIError(apierror.ErrValidation,
			"amount must be positive", fmt.Sprintf("ledger transfer requested for amount %v", req.Amount))
	}

	token := req.Token
	if token == "" {
		token = l.conf.StablecoinContract
	}

	estimate, err := l.EstimateTransferCost(ctx, req.From, req.To, req.Amount, token)
	if err != nil {
		return nil, err
	}

	balance, err := l.GetBalance(ctx, req.From)
	if err != nil {
		return nil, err
	}
	if token == "" {
		// Native transfers spend amount and gas from the same balance.
		if balance.Native < req.Amount+estimate.TotalCost {
			return nil, apierror.NewAPIError(apierror.ErrFinalProvider,
				"insufficient balance to cover the transfer and network fees",
				fmt.Sprintf("address %s holds %f native, needs %f for amount and gas", req.From, balance.Native, req.Amount+estimate.TotalCost))
		}
	} else {
		if balance.Native < estimate.TotalCost {
			return nil, apierror.NewAPIError(apierror.ErrFinalProvider,
				"insufficient balance to cover the transfer and network fees",
				fmt.Sprintf("address %s holds %f native, needs %f for gas", req.From, balance.Native, estimate.TotalCost))
		}
		if balance.Stablecoin < req.Amount {
			return nil, apierror.NewAPIError(apierror.ErrFinalProvider,
				"insufficient balance to cover the transfer and network fees",
				fmt.Sprintf("address %s holds %f stablecoin, transfer needs %f", req.From, balance.Stablecoin, req.Amount))
		}
	}

	var nonceHex string
	if err := l.rpcCall(ctx, "eth_getTransactionCount", []interface{}{req.From, "pending"}, &nonceHex); err != nil {
		return nil, err
	}
	nonce, err := parseHexUint(nonceHex)
	if err != nil {
		return nil, err
	}

	rawTx, txHash, err := l.signer.SignTransfer(ctx, TransferTx{
		From:      req.From,
		To:        req.To,
		Token:     token,
		AmountWei: etherToWei(req.Amount),
		GasLimit:  estimate.GasLimit,
		GasPrice:  estimate.GasPriceWei,
		Nonce:     nonce,
		ChainID:   l.conf.ChainID,
	})
	if err != nil {
		return nil, err
	}

	var broadcastHash string
	if err := l.rpcCall(ctx, "eth_sendRawTransaction", []interface{}{rawTx}, &broadcastHash); err != nil {
		return nil, err
	}
	if broadcastHash != "" {
		txHash = broadcastHash
	}

	transferRef := model.GenerateUUIDWithSuffix("ltx")
	l.mu.Lock()
	l.transfers[transferRef] = &ledgerTxRecord{TxHash: txHash, From: req.From}
	l.mu.Unlock()

	return &model.LedgerTransfer{
		TransferRef: transferRef,
		TxHash:      txHash,
		Status:      model.ExternalStatusPending,
		GasEstimate: *estimate,
	}, nil
}

type txReceipt struct {
	Status      string `json:"status"`
	BlockNumber string `json:"blockNumber"`
	GasUsed     string `json:"gasUsed"`
}

// GetTransferStatus reports the confirmation state of an initiated
// transfer. CONFIRMED requires the configured confirmation depth; a mined
// but shallow transaction stays PENDING.
func (l *LedgerRail) GetTransferStatus(ctx context.Context, transferRef string) (*model.LedgerTransferStatus, error) {
	l.mu.RLock()
	record, ok := l.transfers[transferRef]
	l.mu.RUnlock()
	if !ok {
		return nil, apierror.NewAPIError(apierror.ErrNotFound,
			fmt.Sprintf("ledger transfer %s not found", transferRef),
			fmt.Sprintf("status lookup for unknown transfer ref %s", transferRef))
	}

	var receipt *txReceipt
	if err := l.rpcCall(ctx, "eth_getTransactionReceipt", []interface{}{record.TxHash}, &receipt); err != nil {
		return nil, err
	}
	if receipt == nil || receipt.BlockNumber == "" {
		return &model.LedgerTransferStatus{Status: model.ExternalStatusPending}, nil
	}

	if receipt.Status == "0x0" {
		return &model.LedgerTransferStatus{Status: model.ExternalStatusFailed}, nil
	}

	blockNumber, err := parseHexUint(receipt.BlockNumber)
	if err != nil {
		return nil, err
	}

	var headHex string
	if err := l.rpcCall(ctx, "eth_blockNumber", []interface{}{}, &headHex); err != nil {
		return nil, err
	}
	head, err := parseHexUint(headHex)
	if err != nil {
		return nil, err
	}

	confirmations := uint64(0)
	if head >= blockNumber {
		confirmations = head - blockNumber + 1
	}

	status := model.ExternalStatusPending
	if confirmations >= l.conf.ConfirmationDepth {
		status = model.ExternalStatusConfirmed
	}

	result := &model.LedgerTransferStatus{
		Status:        status,
		Confirmations: confirmations,
		BlockNumber:   &blockNumber,
	}
	if gasUsed, parseErr := parseHexUint(receipt.GasUsed); parseErr == nil {
		result.GasUsed = &gasUsed
	}
	return result, nil
}

// MonitorUntilTerminal polls the transfer until it confirms, fails, or
// maxWait elapses. On timeout the last known state comes back annotated
// with TimedOut instead of an error, so callers decide how to proceed.
func (l *LedgerRail) MonitorUntilTerminal(ctx context.Context, transferRef string, onUpdate func(*model.LedgerTransferStatus), maxWait time.Duration) (*model.LedgerTransferStatus, error) {
	interval := l.poll
	deadline := time.Now().Add(maxWait)
	last := &model.LedgerTransferStatus{Status: model.ExternalStatusPending}

	for {
		status, err := l.GetTransferStatus(ctx, transferRef)
		if err == nil {
			last = status
			if onUpdate != nil {
				onUpdate(status)
			}
			if status.Status == model.ExternalStatusConfirmed || status.Status == model.ExternalStatusFailed {
				return status, nil
			}
		} else if apierror.CodeOf(err) == apierror.ErrNotFound {
			return nil, err
		}

		if time.Now().After(deadline) {
			last.TimedOut = true
			return last, nil
		}
		select {
		case <-ctx.Done():
			last.TimedOut = true
			return last, ctx.Err()
		case <-time.After(interval):
		}
	}
}

// deriveOwnerKey derives the wallet encryption key for one owner. Real
// deployments replace this with a key-management service.
func deriveOwnerKey(ownerID string) []byte {
	sum := sha256.Sum256([]byte("velora:wallet-key:" + ownerID))
	return sum[:]
}

func encryptKeyMaterial(ownerID string, material []byte) (string, error) {
	block, err := aes.NewCipher(deriveOwnerKey(ownerID))
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nonce, nonce, material, nil)
	return hex.EncodeToString(sealed), nil
}

var recoveryWordList = []string{
	"anchor", "basin", "cedar", "delta", "ember", "fjord", "grove", "harbor",
	"inlet", "juniper", "kelp", "lagoon", "meadow", "north", "orchid", "prairie",
	"quarry", "ridge", "summit", "tundra", "umber", "valley", "willow", "xenon",
	"yarrow", "zephyr", "aspen", "birch", "cove", "dune", "estuary", "fern",
}

func generateRecoveryPhrase() (string, error) {
	words := make([]string, 12)
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		words[i] = recoveryWordList[int(b)%len(recoveryWordList)]
	}
	return strings.Join(words, " "), nil
}

// CreateWallet provisions an on-chain wallet. The recovery phrase and
// encrypted key are returned exactly once and never stored in cleartext.
func (l *LedgerRail) CreateWallet(ctx context.Context, ownerID string) (*model.Wallet, error) {
	_, span := otel.Tracer("velora.rail.ledger").Start(ctx, "Create Ledger Wallet")
	defer span.End()

	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}

	addrDigest := sha256.Sum256(seed)
	address := "0x" + hex.EncodeToString(addrDigest[12:32])

	phrase, err := generateRecoveryPhrase()
	if err != nil {
		return nil, err
	}
	encryptedKey, err := encryptKeyMaterial(ownerID, seed)
	if err != nil {
		return nil, err
	}

	wallet := &model.Wallet{
		WalletID:       model.GenerateUUIDWithSuffix("wal"),
		OwnerID:        ownerID,
		Address:        address,
		RecoveryPhrase: phrase,
		EncryptedKey:   encryptedKey,
	}

	l.mu.Lock()
	// stored copy carries no recoverable key material
	l.wallets[wallet.WalletID] = &model.Wallet{
		WalletID: wallet.WalletID,
		OwnerID:  ownerID,
		Address:  address,
	}
	l.mu.Unlock()

	return wallet, nil
}

func (l *LedgerRail) walletAddress(walletID string) (string, error) {
	l.mu.RLock()
	wallet, ok := l.wallets[walletID]
	l.mu.RUnlock()
	if !ok {
		return "", apierror.NewAPIError(apierror.ErrNotFound,
			fmt.Sprintf("wallet %s not found", walletID),
			fmt.Sprintf("address lookup for unknown wallet %s", walletID))
	}
	return wallet.Address, nil
}

// CreatePayment delegates card acquiring to the custodial provider; the
// ledger rail only replaces the settlement leg.
func (l *LedgerRail) CreatePayment(ctx context.Context, amount float64, currency string, card model.CardDetails) (*model.Payment, error) {
	return l.onramp.CreatePayment(ctx, amount, currency, card)
}

func (l *LedgerRail) WaitForConfirmation(ctx context.Context, paymentID string, maxWait time.Duration) (*model.Payment, error) {
	return l.onramp.WaitForConfirmation(ctx, paymentID, maxWait)
}

// CreateTransfer settles a wallet-to-wallet movement on-chain.
func (l *LedgerRail) CreateTransfer(ctx context.Context, sourceWalletID, destWalletID string, amount float64, currency string) (*model.Movement, error) {
	if sourceWalletID == destWalletID {
		return nil, apierror.NewAPIError(apierror.ErrValidation,
			"source and destination wallets must differ",
			fmt.Sprintf("ledger movement requested from %s to itself", sourceWalletID))
	}
	if currency == "" {
		return nil, apierror.NewAPIError(apierror.ErrValidation,
			"currency is required", "ledger movement requested without a currency")
	}

	from, err := l.walletAddress(sourceWalletID)
	if err != nil {
		return nil, err
	}
	to, err := l.walletAddress(destWalletID)
	if err != nil {
		return nil, err
	}

	transfer, err := l.InitiateTransfer(ctx, LedgerTransferRequest{From: from, To: to, Amount: amount})
	if err != nil {
		return nil, err
	}

	return &model.Movement{
		MovementID: transfer.TransferRef,
		Status:     transfer.Status,
		Amount:     amount,
		Currency:   currency,
	}, nil
}

func (l *LedgerRail) CreatePayout(ctx context.Context, amount float64, currency, sourceWalletID string, bank model.Recipient) (*model.Payout, error) {
	return l.onramp.CreatePayout(ctx, amount, currency, sourceWalletID, bank)
}

func (l *LedgerRail) GetStatus(ctx context.Context, entityKind, externalID string) (string, error) {
	if entityKind == EntityMovement {
		status, err := l.GetTransferStatus(ctx, externalID)
		if err != nil {
			return "", err
		}
		return status.Status, nil
	}
	return l.onramp.GetStatus(ctx, entityKind, externalID)
}

// networkFeeUSD feeds the fee calculator with the live gas cost of a
// representative stablecoin transfer.
func (l *LedgerRail) networkFeeUSD(ctx context.Context, _ model.Rail) (float64, error) {
	placeholder := "0x" + strings.Repeat("0", 40)
	estimate, err := l.EstimateTransferCost(ctx, placeholder, placeholder, 1, l.conf.StablecoinContract)
	if err != nil {
		return 0, err
	}
	return estimate.TotalCostUSD, nil
}

// EstimateCost prices a transfer on the ledger rail. A disabled rail
// errors, which comparison callers treat as "omit this option".
func (l *LedgerRail) EstimateCost(ctx context.Context, amount float64, sourceCurrency, destCurrency string) (*model.RailCostEstimate, error) {
	if !l.conf.Enabled {
		return nil, apierror.NewAPIError(apierror.ErrFinalProvider,
			"ledger rail is not enabled", "cost estimate requested while ledger rail disabled")
	}

	fees, err := l.fees.Breakdown(ctx, amount, model.RailLedger)
	if err != nil {
		return nil, err
	}

	return &model.RailCostEstimate{
		Rail:                model.RailLedger,
		Fees:                fees,
		TotalCost:           fees.Total,
		EstimatedCompletion: ledgerCompletionEstimate,
		Benefits: []string{
			"settlement in minutes, not hours",
			"lower network fees on most transfers",
			"publicly verifiable on-chain settlement",
		},
		Limitations: []string{
			"gas costs fluctuate with network load",
			"no dispute resolution once settled",
		},
		Available: true,
	}, nil
}
