package telegram

import (
	"github.com/example/telegram-order-notify/internal/settings"
)

// Target is one (credential, recipient) pair, built per send and never
// persisted.
type Target struct {
	Token  string
	ChatID string
}

// Resolve flattens the configuration into an ordered target list:
// the primary bot first when it has a token and at least one valid
// recipient, then each additional bot in configured order under the
// same rule. The same chat id under two different tokens stays
// duplicated; different bot identities may address the same chat.
func Resolve(s settings.Settings, cph *settings.Cipher) []Target {
	var out []Target

	token := cph.BotToken(s)
	if token != "" {
		for _, id := range s.ChatIDList() {
			out = append(out, Target{Token: token, ChatID: id})
		}
	}

	for _, bot := range cph.AdditionalBots(s) {
		for _, id := range settings.ParseChatIDs(bot.ChatIDs) {
			out = append(out, Target{Token: bot.Token, ChatID: id})
		}
	}

	return out
}
