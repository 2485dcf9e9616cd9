package render

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/example/telegram-order-notify/internal/order"
	"github.com/example/telegram-order-notify/internal/settings"
)

var (
	tagRe        = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Renderer substitutes order fields into message templates.
type Renderer struct {
	SiteName     string
	AdminBaseURL string
}

// Message resolves the template for the order's status and renders it.
// Unless rich messages are enabled, all HTML tags are stripped from the
// result so plain-mode output never carries markup.
func (r Renderer) Message(o order.Order, s settings.Settings) string {
	out := r.Render(s.TemplateFor(o.Status), o, s)
	if !s.RichMessagesEnabled {
		out = StripTags(out)
	}
	return out
}

// Render substitutes every recognized placeholder in tpl. Unrecognized
// brace tokens pass through unchanged.
func (r Renderer) Render(tpl string, o order.Order, s settings.Settings) string {
	orderDate := ""
	if !o.CreatedAt.IsZero() {
		orderDate = o.CreatedAt.Format("2006-01-02 15:04")
	}

	total := html.UnescapeString(StripTags(o.FormattedTotal))

	productsList := ""
	if s.IncludeProductsList {
		lines := make([]string, 0, len(o.Items))
		for _, it := range o.Items {
			lines = append(lines, fmt.Sprintf("• %s × %d", it.Name, it.Quantity))
		}
		productsList = strings.Join(lines, "\n")
	}

	billingAddress := ""
	couponUsed := ""
	orderNotes := ""
	if s.IncludeExtraFields {
		billingAddress = strings.TrimSpace(whitespaceRe.ReplaceAllString(o.BillingAddress, " "))
		couponUsed = strings.Join(o.CouponCodes, ",")
		orderNotes = o.CustomerNote
	}

	rep := strings.NewReplacer(
		"{site_name}", r.SiteName,
		"{order_id}", strconv.Itoa(o.ID),
		"{customer_name}", strings.TrimSpace(o.BillingName),
		"{phone}", o.BillingPhone,
		"{order_total}", total,
		"{payment_method}", o.PaymentMethodTitle,
		"{order_status}", StatusName(o.Status),
		"{order_date}", orderDate,
		"{order_link}", r.OrderLink(o.ID),
		"{products_list}", productsList,
		"{quantity}", strconv.Itoa(o.ItemCount()),
		"{shipping_method}", o.ShippingMethod,
		"{billing_address}", billingAddress,
		"{coupon_used}", couponUsed,
		"{order_notes}", orderNotes,
	)

	return rep.Replace(tpl)
}

func (r Renderer) OrderLink(id int) string {
	return fmt.Sprintf("%s/orders/%d", strings.TrimRight(r.AdminBaseURL, "/"), id)
}

// OrdersURL is the order list view, used by the rich test keyboard.
func (r Renderer) OrdersURL() string {
	return strings.TrimRight(r.AdminBaseURL, "/") + "/orders"
}

// StripTags removes HTML tags, leaving text content.
func StripTags(s string) string {
	return tagRe.ReplaceAllString(s, "")
}

var statusNames = map[string]string{
	"pending":    "Pending payment",
	"processing": "Processing",
	"on-hold":    "On hold",
	"completed":  "Completed",
	"cancelled":  "Cancelled",
	"refunded":   "Refunded",
	"failed":     "Failed",
}

// StatusName maps a status slug to its display label.
func StatusName(status string) string {
	slug := settings.NormalizeStatus(status)
	if name, ok := statusNames[slug]; ok {
		return name
	}
	if slug == "" {
		return status
	}
	return strings.ToUpper(slug[:1]) + slug[1:]
}
