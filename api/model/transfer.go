package model

import (
	velora "github.com/velorapay/velora"
	"github.com/velorapay/velora/model"
)

type Card struct {
	Number      string `json:"number"`
	CVV         string `json:"cvv"`
	ExpMonth    int    `json:"exp_month"`
	ExpYear     int    `json:"exp_year"`
	BillingName string `json:"billing_name"`
	Country     string `json:"country"`
}

type Recipient struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone,omitempty"`
	AccountNumber string `json:"account_number"`
	BankCode      string `json:"bank_code"`
	Country       string `json:"country"`
}

type CreateTransfer struct {
	UserID          string                 `json:"user_id"`
	QuoteID         string                 `json:"quote_id,omitempty"`
	SendAmount      float64                `json:"send_amount"`
	SendCurrency    string                 `json:"send_currency"`
	ReceiveCurrency string                 `json:"receive_currency"`
	Rail            string                 `json:"rail,omitempty"`
	Card            Card                   `json:"card"`
	Recipient       Recipient              `json:"recipient"`
	MetaData        map[string]interface{} `json:"meta_data,omitempty"`
}

type LockQuote struct {
	SourceCurrency string  `json:"source_currency"`
	DestCurrency   string  `json:"dest_currency"`
	SendAmount     float64 `json:"send_amount"`
}

type CompareRails struct {
	SendAmount      float64 `json:"send_amount"`
	SendCurrency    string  `json:"send_currency"`
	ReceiveCurrency string  `json:"receive_currency"`
	Preferred       string  `json:"preferred,omitempty"`
}

// ToTransferRequest maps the validated API payload onto the orchestrator's
// request type.
func (t *CreateTransfer) ToTransferRequest() *velora.CreateTransferRequest {
	return &velora.CreateTransferRequest{
		UserID:          t.UserID,
		QuoteID:         t.QuoteID,
		SendAmount:      t.SendAmount,
		SendCurrency:    t.SendCurrency,
		ReceiveCurrency: t.ReceiveCurrency,
		Rail:            model.Rail(t.Rail),
		Card: model.CardDetails{
			Number:      t.Card.Number,
			CVV:         t.Card.CVV,
			ExpMonth:    t.Card.ExpMonth,
			ExpYear:     t.Card.ExpYear,
			BillingName: t.Card.BillingName,
			Country:     t.Card.Country,
		},
		Recipient: model.Recipient{
			Name:          t.Recipient.Name,
			Email:         t.Recipient.Email,
			Phone:         t.Recipient.Phone,
			AccountNumber: t.Recipient.AccountNumber,
			BankCode:      t.Recipient.BankCode,
			Country:       t.Recipient.Country,
		},
		MetaData: t.MetaData,
	}
}
