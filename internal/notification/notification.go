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

package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/velorapay/velora/config"
	"github.com/velorapay/velora/internal/request"
)

// Notification channels a transfer participant can be reached on.
const (
	ChannelEmail   = "email"
	ChannelSms     = "sms"
	ChannelWebhook = "webhook"
)

const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// Contact holds the delivery addresses for one transfer participant. Empty
// fields mean the participant has no contact method on file for that channel.
type Contact struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	WebhookURL string `json:"webhook_url"`
}

// Result reports the outcome of one delivery attempt on one channel.
type Result struct {
	Channel string `json:"channel"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
}

// Gateway fans a transfer event out to the configured delivery channels.
// Delivery failures are reported per channel and never abort the fanout.
type Gateway interface {
	Notify(ctx context.Context, eventType string, payload map[string]interface{}, contacts []Contact, channels []string) []Result
}

type httpGateway struct{}

// NewGateway returns a Gateway that posts channel payloads to the provider
// endpoints in the notification config.
func NewGateway() Gateway {
	return &httpGateway{}
}

func (g *httpGateway) Notify(ctx context.Context, eventType string, payload map[string]interface{}, contacts []Contact, channels []string) []Result {
	results := make([]Result, 0, len(contacts)*len(channels))
	conf, err := config.Fetch()
	if err != nil {
		for _, channel := range channels {
			results = append(results, Result{Channel: channel, Status: StatusFailed, Error: err.Error()})
		}
		return results
	}

	for _, contact := range contacts {
		for _, channel := range channels {
			results = append(results, g.deliver(ctx, conf, eventType, payload, contact, channel))
		}
	}
	return results
}

func (g *httpGateway) deliver(ctx context.Context, conf *config.Configuration, eventType string, payload map[string]interface{}, contact Contact, channel string) Result {
	var url, address string
	switch channel {
	case ChannelEmail:
		url, address = conf.Notification.Email.Url, contact.Email
	case ChannelSms:
		url, address = conf.Notification.Sms.Url, contact.Phone
	case ChannelWebhook:
		url, address = conf.Notification.Webhook.Url, contact.WebhookURL
	default:
		return Result{Channel: channel, Status: StatusFailed, Error: fmt.Sprintf("unknown notification channel %s", channel)}
	}

	if address == "" {
		return Result{Channel: channel, Status: StatusFailed, Error: fmt.Sprintf("no %s contact on file", channel)}
	}
	if url == "" {
		return Result{Channel: channel, Status: StatusFailed, Error: fmt.Sprintf("%s provider not configured", channel)}
	}

	body := map[string]interface{}{
		"event_type": eventType,
		"to":         address,
		"data":       payload,
	}
	jsonBody, err := request.ToJsonReq(&body)
	if err != nil {
		return Result{Channel: channel, Status: StatusFailed, Error: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, jsonBody)
	if err != nil {
		return Result{Channel: channel, Status: StatusFailed, Error: err.Error()}
	}
	if channel == ChannelWebhook {
		for k, v := range conf.Notification.Webhook.Headers {
			req.Header.Set(k, v)
		}
	}

	var response map[string]interface{}
	resp, err := request.Call(req, &response)
	if err != nil {
		logrus.Warnf("notification delivery on %s failed: %v", channel, err)
		return Result{Channel: channel, Status: StatusFailed, Error: err.Error()}
	}
	if resp.StatusCode >= 400 {
		return Result{Channel: channel, Status: StatusFailed, Error: fmt.Sprintf("provider returned %d", resp.StatusCode)}
	}
	return Result{Channel: channel, Status: StatusSent}
}

// CountSent returns how many delivery attempts actually went out.
func CountSent(results []Result) int {
	sent := 0
	for _, r := range results {
		if r.Status == StatusSent {
			sent++
		}
	}
	return sent
}

// SlackNotification sends an error message to the configured Slack webhook.
func SlackNotification(err error) {
	data := json.RawMessage(fmt.Sprintf(`{
		"blocks": [
			{
				"type": "header",
				"text": {
					"type": "plain_text",
					"text": "Error From Velora 🐞",
					"emoji": true
				}
			},
			{
				"type": "section",
				"fields": [
					{
						"type": "mrkdwn",
						"text": "*Error:*\n%v"
					}
				]
			},
			{
				"type": "section",
				"fields": [
					{
						"type": "mrkdwn",
						"text": "*Time:*\n%v"
					}
				]
			}
		]
	}`, err.Error(), time.Now().Format(time.RFC822)))

	conf, err := config.Fetch()
	if err != nil {
		log.Println(err)
		return
	}

	payload, err := request.ToJsonReq(&data)
	if err != nil {
		log.Println(err)
		return
	}

	req, err := http.NewRequest("POST", conf.Notification.Slack.WebhookUrl, payload)
	if err != nil {
		log.Println(err)
		return
	}

	var response map[string]interface{}
	_, err = request.Call(req, &response)
	if err != nil {
		log.Println(err)
	}
}

// NotifyError logs a system error and reports it to Slack when configured.
// The notification runs asynchronously so callers are never blocked.
func NotifyError(systemError error) {
	go func(systemError error) {
		logrus.Error(systemError)

		conf, err := config.Fetch()
		if err != nil {
			log.Println(err)
			return
		}

		if conf.Notification.Slack.WebhookUrl != "" {
			SlackNotification(systemError)
		}
	}(systemError)
}
