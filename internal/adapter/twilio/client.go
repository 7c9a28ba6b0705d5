// Package twilio sends alert messages through the Twilio Programmable
// Messaging REST API, over WhatsApp and SMS.
package twilio

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/couchcryptid/coastal-alert-service/internal/config"
	"github.com/couchcryptid/coastal-alert-service/internal/domain"
	"github.com/go-resty/resty/v2"
)

const (
	messagesPath   = "/2010-04-01/Accounts/{AccountSid}/Messages.json"
	whatsappPrefix = "whatsapp:"
)

// Client posts messages to the Twilio Messages resource. Requests are not
// retried.
type Client struct {
	http       *resty.Client
	accountSID string
	chatFrom   string
	smsFrom    string
	logger     *slog.Logger
}

// NewClient creates a client authenticated with the account SID and token.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	rc := resty.New().
		SetBaseURL(cfg.TwilioBaseURL).
		SetTimeout(cfg.TwilioTimeout).
		SetBasicAuth(cfg.TwilioAccountSID, cfg.TwilioAuthToken).
		SetHeader("Accept", "application/json")

	return &Client{
		http:       rc,
		accountSID: cfg.TwilioAccountSID,
		chatFrom:   cfg.TwilioChatFrom,
		smsFrom:    cfg.TwilioSMSFrom,
		logger:     logger.With("component", "twilio"),
	}
}

// Send delivers message to phone on channel. Failures are reported in the
// result's Err, never as a panic.
func (c *Client) Send(ctx context.Context, channel domain.Channel, phone, message string) domain.DeliveryResult {
	result := domain.DeliveryResult{Channel: channel, Phone: phone}

	from, to, err := c.addresses(channel, phone)
	if err != nil {
		result.Err = err
		return result
	}

	var accepted messageResource
	var apiErr APIError
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("AccountSid", c.accountSID).
		SetFormData(map[string]string{
			"To":   to,
			"From": from,
			"Body": message,
		}).
		SetResult(&accepted).
		SetError(&apiErr).
		Post(messagesPath)
	if err != nil {
		result.Err = fmt.Errorf("send %s message: %w", channel, err)
		return result
	}

	if resp.IsError() {
		apiErr.Status = resp.StatusCode()
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode())
		}
		result.Err = &apiErr
		return result
	}

	result.MessageID = accepted.SID
	c.logger.Debug("message accepted",
		"channel", channel,
		"sid", accepted.SID,
		"status", accepted.Status,
	)
	return result
}

func (c *Client) addresses(channel domain.Channel, phone string) (from, to string, err error) {
	switch channel {
	case domain.ChannelChat:
		return whatsappPrefix + c.chatFrom, whatsappPrefix + phone, nil
	case domain.ChannelSMS:
		return c.smsFrom, phone, nil
	}
	return "", "", fmt.Errorf("unsupported channel %q", channel)
}

// messageResource is the subset of the Twilio Message resource we read.
type messageResource struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}
