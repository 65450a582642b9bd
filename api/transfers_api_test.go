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

package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	velora "github.com/velorapay/velora"
	model2 "github.com/velorapay/velora/api/model"
	"github.com/velorapay/velora/config"
	"github.com/velorapay/velora/database"
	"github.com/velorapay/velora/database/mocks"
	"github.com/velorapay/velora/internal/request"
	"github.com/velorapay/velora/model"
)

const (
	testProviderBase  = "http://custodial.provider"
	testWebhookSecret = "whsec_test"
)

type TestRequest struct {
	Payload  io.Reader
	Router   *gin.Engine
	Response interface{}
	Method   string
	Route    string
	Header   map[string]string
}

func SetUpTestRequest(s TestRequest) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(s.Method, s.Route, s.Payload)
	for key, value := range s.Header {
		req.Header.Set(key, value)
	}
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	s.Router.ServeHTTP(resp, req)

	err := json.NewDecoder(resp.Body).Decode(&s.Response)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func setupRouter(t *testing.T) (*gin.Engine, *mocks.MockDataSource) {
	t.Helper()
	mr := miniredis.RunT(t)
	config.MockConfig(&config.Configuration{
		Redis: config.RedisConfig{Dns: mr.Addr()},
		Rails: config.RailsConfig{
			Custodial: config.CustodialRailConfig{
				BaseURL:   testProviderBase,
				APIKey:    "sk_test",
				PayoutFee: 2.50,
			},
		},
		Rates: config.RatesConfig{
			PrimaryURL:      "http://rates.provider/latest",
			QuoteTTLMinutes: 10,
		},
		Fees: config.FeesConfig{
			ProcessingPercent: 2.9,
			ProcessingFixed:   0.30,
			ExchangePercent:   0.5,
			CustodialNetwork:  2.50,
		},
		Webhook: config.WebhookConfig{SharedSecret: testWebhookSecret},
	})

	mockDS := new(mocks.MockDataSource)
	service, err := velora.NewVelora(mockDS)
	require.NoError(t, err)
	return NewAPI(service).Router(), mockDS
}

func validTransferPayload() model2.CreateTransfer {
	return model2.CreateTransfer{
		UserID:          "usr_1",
		SendAmount:      100,
		SendCurrency:    "USD",
		ReceiveCurrency: "EUR",
		Rail:            "custodial",
		Card: model2.Card{
			Number:      "4242424242424242",
			CVV:         "123",
			ExpMonth:    12,
			ExpYear:     time.Now().Year() + 2,
			BillingName: "Ada Okafor",
			Country:     "US",
		},
		Recipient: model2.Recipient{
			Name:          "Ada Okafor",
			Email:         "ada@example.com",
			AccountNumber: "0123456789",
			BankCode:      "058",
			Country:       "NG",
		},
	}
}

func TestCreateTransferValidation(t *testing.T) {
	router, _ := setupRouter(t)

	tests := []struct {
		name         string
		mutate       func(*model2.CreateTransfer)
		expectedCode int
	}{
		{
			name:         "missing user id",
			mutate:       func(p *model2.CreateTransfer) { p.UserID = "" },
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "amount below minimum",
			mutate:       func(p *model2.CreateTransfer) { p.SendAmount = 0.001 },
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "unknown rail",
			mutate:       func(p *model2.CreateTransfer) { p.Rail = "carrier-pigeon" },
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "recipient missing bank details",
			mutate:       func(p *model2.CreateTransfer) { p.Recipient.AccountNumber = "" },
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := validTransferPayload()
			tt.mutate(&payload)

			payloadBytes, _ := request.ToJsonReq(&payload)
			var response map[string]interface{}
			resp, _ := SetUpTestRequest(TestRequest{
				Payload:  payloadBytes,
				Response: &response,
				Method:   "POST",
				Route:    "/transfers",
				Router:   router,
			})
			assert.Equal(t, tt.expectedCode, resp.Code)
		})
	}
}

func TestCreateTransferCardDeclinedMapsToUnprocessable(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	httpmock.RegisterResponder("GET", "http://rates.provider/latest",
		httpmock.NewJsonResponderOrPanic(200, map[string]interface{}{
			"rates": map[string]float64{"EUR": 0.85},
		}))
	httpmock.RegisterResponder("POST", testProviderBase+"/v1/payments",
		httpmock.NewJsonResponderOrPanic(402, map[string]interface{}{
			"error": map[string]interface{}{
				"code":    "card_declined",
				"message": "issuer declined transaction 5021",
			},
		}))

	router, mockDS := setupRouter(t)
	mockDS.On("CreateTransfer", mock.Anything, mock.Anything).Return(&model.Transfer{}, nil)
	mockDS.On("AppendTimelineEvent", mock.Anything, mock.Anything).Return(nil)
	mockDS.On("UpdateTransferStatus", mock.Anything, mock.Anything, model.StatusInitiated, model.StatusFailed,
		database.CorrelationDetails{}).Return(true, nil)

	payload := validTransferPayload()
	payloadBytes, _ := request.ToJsonReq(&payload)
	var response map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Payload:  payloadBytes,
		Response: &response,
		Method:   "POST",
		Route:    "/transfers",
		Router:   router,
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, "FINAL_PROVIDER_ERROR", response["code"])
	// raw provider text never reaches the caller
	assert.NotContains(t, response["error"], "5021")
}

func TestGetTransferStatusNotFound(t *testing.T) {
	router, mockDS := setupRouter(t)
	mockDS.On("GetTransferByID", mock.Anything, "trf_ghost").Return(nil, nil)

	var response map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Response: &response,
		Method:   "GET",
		Route:    "/transfers/trf_ghost",
		Router:   router,
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "NOT_FOUND", response["code"])
}

func TestGetTransferStatusFromStorage(t *testing.T) {
	router, mockDS := setupRouter(t)
	mockDS.On("GetTransferByID", mock.Anything, "trf_1").Return(&model.Transfer{
		TransferID: "trf_1",
		Rail:       model.RailCustodial,
		Status:     model.StatusPayingOut,
	}, nil)

	var view model.StatusView
	resp, err := SetUpTestRequest(TestRequest{
		Response: &view,
		Method:   "GET",
		Route:    "/transfers/trf_1",
		Router:   router,
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, model.StatusPayingOut, view.Status)
}

func TestCancelTransferEndpoint(t *testing.T) {
	router, mockDS := setupRouter(t)
	mockDS.On("GetTransferByID", mock.Anything, "trf_young").Return(&model.Transfer{
		TransferID: "trf_young",
		Status:     model.StatusInitiated,
	}, nil)
	mockDS.On("UpdateTransferStatus", mock.Anything, "trf_young", model.StatusInitiated, model.StatusFailed,
		database.CorrelationDetails{}).Return(true, nil)
	mockDS.On("AppendTimelineEvent", mock.Anything, mock.Anything).Return(nil)

	var response map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Response: &response,
		Method:   "POST",
		Route:    "/transfers/trf_young/cancel",
		Router:   router,
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, true, response["canceled"])
}

func TestGetRateSameCurrency(t *testing.T) {
	router, _ := setupRouter(t)

	var response map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Response: &response,
		Method:   "GET",
		Route:    "/rates?source=USD&dest=USD",
		Router:   router,
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 1.0, response["rate"])
}

func TestLockQuoteEndpoint(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	httpmock.RegisterResponder("GET", "http://rates.provider/latest",
		httpmock.NewJsonResponderOrPanic(200, map[string]interface{}{
			"rates": map[string]float64{"EUR": 0.85},
		}))

	router, _ := setupRouter(t)

	payloadBytes, _ := request.ToJsonReq(&model2.LockQuote{
		SourceCurrency: "USD",
		DestCurrency:   "EUR",
		SendAmount:     100,
	})
	var quote model.Quote
	resp, err := SetUpTestRequest(TestRequest{
		Payload:  payloadBytes,
		Response: &quote,
		Method:   "POST",
		Route:    "/quotes",
		Router:   router,
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, 0.85, quote.Rate)
	assert.Equal(t, 85.0, quote.ReceiveAmount)
	assert.NotEmpty(t, quote.QuoteID)
}

func TestCompareRailsEndpoint(t *testing.T) {
	router, _ := setupRouter(t)

	payloadBytes, _ := request.ToJsonReq(&model2.CompareRails{
		SendAmount:      100,
		SendCurrency:    "USD",
		ReceiveCurrency: "EUR",
	})
	var recommendation model.Recommendation
	resp, err := SetUpTestRequest(TestRequest{
		Payload:  payloadBytes,
		Response: &recommendation,
		Method:   "POST",
		Route:    "/rails/compare",
		Router:   router,
	})
	require.NoError(t, err)

	// ledger rail is disabled in this config, so only custodial competes
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, model.RailCustodial, recommendation.RecommendedMethod)
	assert.Len(t, recommendation.Options, 1)
}
