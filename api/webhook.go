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
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/velorapay/velora/config"
	"github.com/velorapay/velora/model"
)

// SignatureHeader carries the provider's HMAC-SHA256 hex signature over the
// raw request body.
const SignatureHeader = "X-Velora-Signature"

// ProviderWebhook receives asynchronous status events from rail providers.
// The signature is verified before the body is parsed; a bad signature or
// malformed payload is a 400. Business-level misses (unknown external id,
// unhandled category) still acknowledge with 200 because the provider
// delivers at-least-once and would otherwise retry forever.
func (a Api) ProviderWebhook(c *gin.Context) {
	start := time.Now()

	conf, err := config.Fetch()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "configuration unavailable"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read request body", "code": "BAD_REQUEST"})
		return
	}

	signature := c.GetHeader(SignatureHeader)
	if signature == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing webhook signature", "code": "MISSING_SIGNATURE"})
		return
	}
	if !verifySignature(conf.Webhook.SharedSecret, body, signature) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook signature", "code": "INVALID_SIGNATURE"})
		return
	}

	var event model.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		logrus.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed event payload", "code": "MALFORMED_PAYLOAD"})
		return
	}
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now()
	}

	result := a.velora.ProcessEvent(c.Request.Context(), event)

	c.JSON(http.StatusOK, gin.H{
		"received":        true,
		"event_type":      event.Category + "." + event.Data.Status,
		"processing_time": time.Since(start).String(),
		"result":          result,
	})
}

func verifySignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
