package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/example/telegram-order-notify/internal/telegram"
)

func (s *Service) testText() string {
	return fmt.Sprintf("Test notification from %s at %s", s.Renderer.SiteName, time.Now().UTC().Format("2006-01-02 15:04:05"))
}

// SendTest sends a test message through the primary bot.
func (s *Service) SendTest(ctx context.Context) telegram.Outcome {
	cfg, err := s.Settings.Load(ctx)
	if err != nil {
		return telegram.Outcome{Message: err.Error()}
	}
	return s.Client.SendTestMessage(ctx, cfg, s.Cipher, s.testText())
}

// SendTestRich sends a rich-mode test with the order list keyboard.
func (s *Service) SendTestRich(ctx context.Context) telegram.Outcome {
	cfg, err := s.Settings.Load(ctx)
	if err != nil {
		return telegram.Outcome{Message: err.Error()}
	}
	return s.Client.SendTestMessageRich(ctx, cfg, s.Cipher, s.testText(), s.Renderer.OrdersURL())
}

// SendTestAllBots sends a plain test through every configured bot.
func (s *Service) SendTestAllBots(ctx context.Context) telegram.Outcome {
	cfg, err := s.Settings.Load(ctx)
	if err != nil {
		return telegram.Outcome{Message: err.Error()}
	}
	return s.Client.SendTestMessageAllBots(ctx, cfg, s.Cipher, s.testText())
}
