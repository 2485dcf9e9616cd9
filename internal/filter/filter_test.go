package filter

import (
	"testing"

	"github.com/example/telegram-order-notify/internal/order"
	"github.com/example/telegram-order-notify/internal/settings"
)

func baseOrder() order.Order {
	return order.Order{
		ID:             7,
		Status:         "processing",
		Total:          50,
		BillingCountry: "de",
		PaymentMethod:  "stripe",
		Items: []order.Item{
			{Name: "Widget", Quantity: 1, ProductID: 11, CategorySlugs: []string{"tools"}},
			{Name: "Gadget", Quantity: 2, ProductID: 20, VariationID: 21, CategorySlugs: []string{"toys", "sale"}},
		},
	}
}

func baseSettings() settings.Settings {
	return settings.Settings{Enabled: true, Statuses: []string{"processing", "completed"}}
}

func TestPasses(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*order.Order, *settings.Settings)
		want   bool
	}{
		{name: "no predicates", mutate: func(o *order.Order, s *settings.Settings) {}, want: true},
		{
			name:   "status not enabled",
			mutate: func(o *order.Order, s *settings.Settings) { o.Status = "failed" },
			want:   false,
		},
		{
			name:   "empty status set rejects everything",
			mutate: func(o *order.Order, s *settings.Settings) { s.Statuses = nil },
			want:   false,
		},
		{
			name:   "disabled rejects",
			mutate: func(o *order.Order, s *settings.Settings) { s.Enabled = false },
			want:   false,
		},
		{
			name:   "below minimum amount",
			mutate: func(o *order.Order, s *settings.Settings) { s.MinOrderAmount = 50.01 },
			want:   false,
		},
		{
			name:   "at minimum amount",
			mutate: func(o *order.Order, s *settings.Settings) { s.MinOrderAmount = 50 },
			want:   true,
		},
		{
			name:   "zero minimum disables check",
			mutate: func(o *order.Order, s *settings.Settings) { s.MinOrderAmount = 0; o.Total = 0.01 },
			want:   true,
		},
		{
			name:   "country allowed case-insensitive",
			mutate: func(o *order.Order, s *settings.Settings) { s.AllowCountries = "DE, FR" },
			want:   true,
		},
		{
			name:   "country not in list",
			mutate: func(o *order.Order, s *settings.Settings) { s.AllowCountries = "US" },
			want:   false,
		},
		{
			name:   "payment method allowed",
			mutate: func(o *order.Order, s *settings.Settings) { s.PaymentMethods = "stripe,paypal" },
			want:   true,
		},
		{
			name:   "payment method rejected",
			mutate: func(o *order.Order, s *settings.Settings) { s.PaymentMethods = "paypal" },
			want:   false,
		},
		{
			name:   "product id matches parent",
			mutate: func(o *order.Order, s *settings.Settings) { s.ProductIDs = "11" },
			want:   true,
		},
		{
			name:   "variation id preferred over parent",
			mutate: func(o *order.Order, s *settings.Settings) { s.ProductIDs = "21" },
			want:   true,
		},
		{
			name: "parent id hidden by variation",
			// Item 2's parent is 20 but its variation 21 is what counts.
			mutate: func(o *order.Order, s *settings.Settings) { s.ProductIDs = "20" },
			want:   false,
		},
		{
			name:   "no product matches",
			mutate: func(o *order.Order, s *settings.Settings) { s.ProductIDs = "999" },
			want:   false,
		},
		{
			name:   "category slug intersects",
			mutate: func(o *order.Order, s *settings.Settings) { s.CategorySlugs = "sale,books" },
			want:   true,
		},
		{
			name:   "category slugs disjoint",
			mutate: func(o *order.Order, s *settings.Settings) { s.CategorySlugs = "books" },
			want:   false,
		},
		{
			name: "all predicates together",
			mutate: func(o *order.Order, s *settings.Settings) {
				s.MinOrderAmount = 10
				s.AllowCountries = "de"
				s.PaymentMethods = "stripe"
				s.ProductIDs = "11"
				s.CategorySlugs = "tools"
			},
			want: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := baseOrder()
			s := baseSettings()
			tc.mutate(&o, &s)
			if got := Passes(o, s); got != tc.want {
				t.Fatalf("Passes=%v, expected %v", got, tc.want)
			}
		})
	}
}

// Adding an allow-list can only shrink the passing set, never expand it.
func TestRestrictionMonotonic(t *testing.T) {
	o := baseOrder()
	s := baseSettings()
	s.AllowCountries = "US"
	if Passes(o, s) {
		t.Fatal("restricted settings passed an order the list excludes")
	}

	o.Status = "failed"
	s = baseSettings()
	if Passes(o, s) {
		t.Fatal("sanity: order should fail on status")
	}
	s.ProductIDs = "11"
	if Passes(o, s) {
		t.Fatal("adding a predicate must not make a failing order pass")
	}
}
