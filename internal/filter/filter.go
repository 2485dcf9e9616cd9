package filter

import (
	"strconv"
	"strings"

	"github.com/example/telegram-order-notify/internal/order"
	"github.com/example/telegram-order-notify/internal/settings"
)

// Passes evaluates every configured predicate against the order. The
// predicates are independent AND terms; unset ones are vacuously true.
func Passes(o order.Order, s settings.Settings) bool {
	if !s.NotifiesStatus(o.Status) {
		return false
	}
	if s.MinOrderAmount > 0 && o.Total < s.MinOrderAmount {
		return false
	}
	if !countryAllowed(o, s.AllowCountries) {
		return false
	}
	if !paymentMethodAllowed(o, s.PaymentMethods) {
		return false
	}
	if !productAllowed(o, s.ProductIDs) {
		return false
	}
	if !categoryAllowed(o, s.CategorySlugs) {
		return false
	}
	return true
}

func countryAllowed(o order.Order, raw string) bool {
	allowed := settings.SplitCSV(raw)
	if len(allowed) == 0 {
		return true
	}
	country := strings.ToUpper(strings.TrimSpace(o.BillingCountry))
	if country == "" {
		return true
	}
	for _, c := range allowed {
		if strings.ToUpper(c) == country {
			return true
		}
	}
	return false
}

func paymentMethodAllowed(o order.Order, raw string) bool {
	allowed := settings.SplitCSV(raw)
	if len(allowed) == 0 {
		return true
	}
	method := o.PaymentMethod
	if method == "" {
		return true
	}
	for _, m := range allowed {
		if m == method {
			return true
		}
	}
	return false
}

func productAllowed(o order.Order, raw string) bool {
	allowed := parseIDs(raw)
	if len(allowed) == 0 {
		return true
	}
	for _, item := range o.Items {
		if _, ok := allowed[item.EffectiveProductID()]; ok {
			return true
		}
	}
	return false
}

func categoryAllowed(o order.Order, raw string) bool {
	wanted := make(map[string]struct{})
	for _, slug := range settings.SplitCSV(raw) {
		if s := settings.Slugify(slug); s != "" {
			wanted[s] = struct{}{}
		}
	}
	if len(wanted) == 0 {
		return true
	}
	for _, item := range o.Items {
		for _, slug := range item.CategorySlugs {
			if _, ok := wanted[settings.Slugify(slug)]; ok {
				return true
			}
		}
	}
	return false
}

func parseIDs(raw string) map[int]struct{} {
	out := make(map[int]struct{})
	for _, part := range settings.SplitCSV(raw) {
		id, err := strconv.Atoi(part)
		if err != nil || id <= 0 {
			continue
		}
		out[id] = struct{}{}
	}
	return out
}
