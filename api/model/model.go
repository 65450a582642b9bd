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
package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/velorapay/velora/model"
)

func (t *CreateTransfer) ValidateCreateTransfer() error {
	return validation.ValidateStruct(t,
		validation.Field(&t.UserID, validation.Required),
		validation.Field(&t.SendAmount, validation.Required, validation.Min(0.01)),
		validation.Field(&t.SendCurrency, validation.Required, validation.Length(3, 3)),
		validation.Field(&t.ReceiveCurrency, validation.Required, validation.Length(3, 3)),
		validation.Field(&t.Rail, validation.In(string(model.RailCustodial), string(model.RailLedger))),
		validation.Field(&t.Card, validation.By(func(interface{}) error {
			return t.Card.validate()
		})),
		validation.Field(&t.Recipient, validation.By(func(interface{}) error {
			return t.Recipient.validate()
		})),
	)
}

func (c *Card) validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Number, validation.Required),
		validation.Field(&c.CVV, validation.Required),
		validation.Field(&c.ExpMonth, validation.Required, validation.Min(1), validation.Max(12)),
		validation.Field(&c.ExpYear, validation.Required),
		validation.Field(&c.BillingName, validation.Required),
	)
}

func (r *Recipient) validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.AccountNumber, validation.Required),
		validation.Field(&r.BankCode, validation.Required),
		validation.Field(&r.Country, validation.Required),
	)
}

func (q *LockQuote) ValidateLockQuote() error {
	return validation.ValidateStruct(q,
		validation.Field(&q.SourceCurrency, validation.Required, validation.Length(3, 3)),
		validation.Field(&q.DestCurrency, validation.Required, validation.Length(3, 3)),
		validation.Field(&q.SendAmount, validation.Required, validation.Min(0.01)),
	)
}

func (r *CompareRails) ValidateCompareRails() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.SendAmount, validation.Required, validation.Min(0.01)),
		validation.Field(&r.SendCurrency, validation.Required, validation.Length(3, 3)),
		validation.Field(&r.ReceiveCurrency, validation.Required, validation.Length(3, 3)),
		validation.Field(&r.Preferred, validation.In(string(model.RailCustodial), string(model.RailLedger))),
	)
}
