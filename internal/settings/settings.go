package settings

import (
	"strings"
)

// Parse modes accepted by the Telegram Bot API.
const (
	ParseModeMarkdown   = "Markdown"
	ParseModeMarkdownV2 = "MarkdownV2"
	ParseModeHTML       = "HTML"
)

const DefaultTemplate = "New Order\n\nSite: {site_name}\nOrder ID: #{order_id}\nDate: {order_date}\nCustomer: {customer_name}\nPhone: {phone}\nTotal: {order_total}\nPayment Method: {payment_method}\nStatus: {order_status}\nView Order: {order_link}"

// BotConfig is one additional sender identity: its own token (encrypted
// at rest) and its own comma-separated chat id list.
type BotConfig struct {
	Label   string `json:"label"`
	Token   string `json:"token"`
	ChatIDs string `json:"chat_ids"`
}

// Settings is the single versioned configuration record. Credential
// fields hold ciphertext; decryption goes through Cipher.
type Settings struct {
	Enabled             bool              `json:"enabled"`
	BotToken            string            `json:"bot_token"`
	ChatIDs             string            `json:"chat_ids"`
	Statuses            []string          `json:"statuses"`
	Template            string            `json:"template"`
	PerStatusTemplates  map[string]string `json:"per_status_templates"`
	NotifyAdmin         bool              `json:"notify_admin"`
	NotifyCustomer      bool              `json:"notify_customer"`
	DelayMinutes        int               `json:"delay_minutes"`
	MinOrderAmount      float64           `json:"min_order_amount"`
	AllowCountries      string            `json:"allow_countries"`
	PaymentMethods      string            `json:"payment_methods"`
	ProductIDs          string            `json:"product_ids"`
	CategorySlugs       string            `json:"category_slugs"`
	RichMessagesEnabled bool              `json:"rich_messages_enabled"`
	ParseMode           string            `json:"parse_mode"`
	IncludeProductsList bool              `json:"include_products_list"`
	IncludeExtraFields  bool              `json:"include_extra_fields"`
	AdditionalBots      []BotConfig       `json:"additional_bots"`
	LogRotationSizeKB   int               `json:"log_rotation_size_kb"`
	LogRotationKeep     int               `json:"log_rotation_keep"`
}

func Defaults() Settings {
	return Settings{
		Statuses:           []string{"processing", "completed", "cancelled", "pending"},
		Template:           DefaultTemplate,
		PerStatusTemplates: map[string]string{},
		NotifyAdmin:        true,
		ParseMode:          ParseModeMarkdown,
		IncludeExtraFields: true,
		LogRotationSizeKB:  512,
		LogRotationKeep:    3,
	}
}

// Normalized merges defaults into unset fields and clamps values to
// their allowed ranges.
func (s Settings) Normalized() Settings {
	d := Defaults()

	if s.Statuses == nil {
		s.Statuses = d.Statuses
	}
	normalized := make([]string, 0, len(s.Statuses))
	for _, st := range s.Statuses {
		if slug := NormalizeStatus(st); slug != "" {
			normalized = append(normalized, slug)
		}
	}
	s.Statuses = normalized

	if strings.TrimSpace(s.Template) == "" {
		s.Template = d.Template
	}
	if s.PerStatusTemplates == nil {
		s.PerStatusTemplates = map[string]string{}
	}

	if s.DelayMinutes < 0 {
		s.DelayMinutes = 0
	}
	if s.DelayMinutes > 5 {
		s.DelayMinutes = 5
	}
	if s.MinOrderAmount < 0 {
		s.MinOrderAmount = 0
	}

	switch s.ParseMode {
	case ParseModeMarkdown, ParseModeMarkdownV2, ParseModeHTML:
	default:
		s.ParseMode = ParseModeMarkdown
	}

	if s.LogRotationSizeKB < 128 {
		s.LogRotationSizeKB = d.LogRotationSizeKB
	}
	if s.LogRotationKeep < 1 {
		s.LogRotationKeep = d.LogRotationKeep
	}

	return s
}

// NormalizeStatus reduces a status to its canonical slug: lowercase,
// platform key prefix stripped, anything outside [a-z0-9_-] dropped.
func NormalizeStatus(status string) string {
	status = strings.ToLower(strings.TrimSpace(status))
	return Slugify(strings.TrimPrefix(status, "wc-"))
}

// Slugify lowercases and drops anything outside [a-z0-9_-].
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NotifiesStatus reports whether the given order status is in the
// enabled set. An empty set disables all statuses.
func (s Settings) NotifiesStatus(status string) bool {
	if !s.Enabled {
		return false
	}
	slug := NormalizeStatus(status)
	for _, enabled := range s.Statuses {
		if NormalizeStatus(enabled) == slug {
			return true
		}
	}
	return false
}

// TemplateFor resolves the template for an order status: per-status
// override when non-blank, else the default, else the built-in.
func (s Settings) TemplateFor(status string) string {
	if tpl, ok := s.PerStatusTemplates[NormalizeStatus(status)]; ok && strings.TrimSpace(tpl) != "" {
		return tpl
	}
	if strings.TrimSpace(s.Template) != "" {
		return s.Template
	}
	return DefaultTemplate
}

func (s Settings) EffectiveParseMode() string {
	switch s.ParseMode {
	case ParseModeMarkdown, ParseModeMarkdownV2, ParseModeHTML:
		return s.ParseMode
	default:
		return ParseModeMarkdown
	}
}

// ChatIDList parses the primary recipient list.
func (s Settings) ChatIDList() []string {
	return ParseChatIDs(s.ChatIDs)
}

// ParseChatIDs splits comma-separated chat ids, dropping entries that
// are not signed integers and duplicates, preserving order otherwise.
// Negative ids address groups.
func ParseChatIDs(raw string) []string {
	parts := strings.Split(raw, ",")
	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if !validChatID(p) {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func validChatID(s string) bool {
	if s == "" {
		return false
	}
	digits := s
	if s[0] == '-' {
		digits = s[1:]
	}
	if digits == "" {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// SplitCSV splits a comma-separated value into trimmed non-blank parts.
func SplitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
