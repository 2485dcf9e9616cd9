package telegram

import (
	"context"
	"encoding/json"

	"github.com/example/telegram-order-notify/internal/settings"
)

// Outcome is the aggregate result surfaced to the caller of a batch
// send: success, or the first failing recipient's message.
type Outcome struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type InlineKeyboardButton struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

func rotation(s settings.Settings) Rotation {
	return Rotation{SizeKB: s.LogRotationSizeKB, Keep: s.LogRotationKeep}
}

func richOptions(s settings.Settings) Options {
	var opts Options
	if s.RichMessagesEnabled {
		opts.ParseMode = s.EffectiveParseMode()
	}
	return opts
}

// SendOrderMessage fans the rendered message out to every resolved
// target. Sends are sequential and best-effort: each recipient is
// attempted and logged regardless of earlier failures, while the
// returned outcome carries the first failure encountered.
func (c *Client) SendOrderMessage(ctx context.Context, s settings.Settings, cph *settings.Cipher, text string, orderID int) Outcome {
	if !s.Enabled {
		return Outcome{OK: true}
	}
	targets := Resolve(s, cph)
	if len(targets) == 0 {
		return Outcome{OK: true}
	}

	opts := richOptions(s)
	rot := rotation(s)
	outcome := Outcome{OK: true}
	for _, t := range targets {
		r := c.Send(ctx, t.Token, t.ChatID, text, orderID, opts, rot)
		if !r.OK && outcome.OK {
			outcome = Outcome{Message: r.Message}
		}
	}
	return outcome
}

// SendTestMessage sends to the primary bot's recipients only. Missing
// credentials are reported as structured failures before any HTTP call
// is made.
func (c *Client) SendTestMessage(ctx context.Context, s settings.Settings, cph *settings.Cipher, text string) Outcome {
	token := cph.BotToken(s)
	if token == "" {
		return Outcome{Message: "Telegram Bot Token is required."}
	}
	chatIDs := s.ChatIDList()
	if len(chatIDs) == 0 {
		return Outcome{Message: "At least one Telegram Chat ID is required."}
	}

	opts := richOptions(s)
	rot := rotation(s)
	results := make([]Result, 0, len(chatIDs))
	for _, id := range chatIDs {
		results = append(results, c.Send(ctx, token, id, text, 0, opts, rot))
	}
	for _, r := range results {
		if !r.OK {
			return Outcome{Message: r.Message}
		}
	}
	return Outcome{OK: true, Message: "Test notification sent."}
}

// SendTestMessageRich requires rich mode and attaches a single-button
// inline keyboard linking to the order list view.
func (c *Client) SendTestMessageRich(ctx context.Context, s settings.Settings, cph *settings.Cipher, text, ordersURL string) Outcome {
	if !s.RichMessagesEnabled {
		return Outcome{Message: "Enable rich messages first."}
	}
	token := cph.BotToken(s)
	chatIDs := s.ChatIDList()
	if token == "" || len(chatIDs) == 0 {
		return Outcome{Message: "Configure bot token and chat IDs."}
	}

	markup, err := json.Marshal(InlineKeyboardMarkup{
		InlineKeyboard: [][]InlineKeyboardButton{{{Text: "View Orders", URL: ordersURL}}},
	})
	if err != nil {
		return Outcome{Message: err.Error()}
	}
	opts := Options{ParseMode: s.EffectiveParseMode(), ReplyMarkup: string(markup)}

	rot := rotation(s)
	results := make([]Result, 0, len(chatIDs))
	for _, id := range chatIDs {
		results = append(results, c.Send(ctx, token, id, text, 0, opts, rot))
	}
	for _, r := range results {
		if !r.OK {
			return Outcome{Message: r.Message}
		}
	}
	return Outcome{OK: true, Message: "Rich test sent."}
}

// SendTestMessageAllBots exercises every resolved target with a plain
// message, stopping at the first failure.
func (c *Client) SendTestMessageAllBots(ctx context.Context, s settings.Settings, cph *settings.Cipher, text string) Outcome {
	targets := Resolve(s, cph)
	if len(targets) == 0 {
		return Outcome{Message: "No bots configured."}
	}

	rot := rotation(s)
	for _, t := range targets {
		if r := c.Send(ctx, t.Token, t.ChatID, text, 0, Options{}, rot); !r.OK {
			return Outcome{Message: r.Message}
		}
	}
	return Outcome{OK: true, Message: "Multi-bot test sent."}
}
