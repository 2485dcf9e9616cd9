package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/telegram-order-notify/internal/deliverylog"
)

const requestFailed = "Telegram request failed."

// Options carries the optional sendMessage fields used by rich mode.
type Options struct {
	ParseMode   string
	ReplyMarkup string // JSON-encoded inline keyboard
}

// Result is the outcome of one delivery attempt. Body holds the
// decoded response payload; an unparseable body is wrapped under "raw".
type Result struct {
	OK         bool
	Message    string
	StatusCode int
	Body       map[string]any
}

// Rotation is the delivery log rotation policy taken from settings.
type Rotation struct {
	SizeKB int
	Keep   int
}

// Client delivers messages through the Telegram Bot API. Every attempt
// is logged; failures come back as values, never as panics, and a
// delivery failure is never retried here.
type Client struct {
	BaseURL string
	Client  *http.Client
	Log     *deliverylog.Logger
}

// Send posts one message to one chat and classifies the outcome.
// orderID is 0 for test sends.
func (c *Client) Send(ctx context.Context, token, chatID, text string, orderID int, opts Options, rot Rotation) Result {
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/bot" + url.PathEscape(token) + "/sendMessage"

	form := url.Values{}
	form.Set("chat_id", chatID)
	form.Set("text", text)
	if opts.ParseMode != "" {
		form.Set("parse_mode", opts.ParseMode)
	}
	if opts.ReplyMarkup != "" {
		form.Set("reply_markup", opts.ReplyMarkup)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		c.logError(orderID, chatID, err.Error(), rot)
		return Result{Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	resp, err := client.Do(req)
	if err != nil {
		c.logError(orderID, chatID, err.Error(), rot)
		return Result{Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil || decoded == nil {
		decoded = map[string]any{"raw": string(raw)}
	}

	var okFlag *bool
	if v, ok := decoded["ok"].(bool); ok {
		okFlag = &v
	}
	description, _ := decoded["description"].(string)
	c.logResponse(orderID, chatID, resp.StatusCode, okFlag, description, rot)

	result := Result{StatusCode: resp.StatusCode, Body: decoded}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result.Message = requestFailed
		return result
	}
	if okFlag != nil && !*okFlag {
		result.Message = description
		if result.Message == "" {
			result.Message = requestFailed
		}
		return result
	}

	result.OK = true
	return result
}

func (c *Client) logError(orderID int, chatID, errText string, rot Rotation) {
	if c.Log == nil {
		return
	}
	c.Log.Append(deliverylog.ErrorEntry(orderID, chatID, errText), rot.SizeKB, rot.Keep)
}

func (c *Client) logResponse(orderID int, chatID string, code int, ok *bool, description string, rot Rotation) {
	if c.Log == nil {
		return
	}
	c.Log.Append(deliverylog.ResponseEntry(orderID, chatID, code, ok, description), rot.SizeKB, rot.Keep)
}
