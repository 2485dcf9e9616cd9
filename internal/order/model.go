package order

import "time"

// Item is one purchased line item.
type Item struct {
	Name          string   `json:"name"`
	Quantity      int      `json:"quantity"`
	ProductID     int      `json:"product_id"`
	VariationID   int      `json:"variation_id"`
	CategorySlugs []string `json:"category_slugs"`
}

// EffectiveProductID prefers the variation over the parent product.
func (i Item) EffectiveProductID() int {
	if i.VariationID != 0 {
		return i.VariationID
	}
	return i.ProductID
}

// Order is a read-only snapshot of an order owned by the commerce
// platform. The notifier only reads it.
type Order struct {
	ID                 int       `json:"id"`
	Status             string    `json:"status"`
	Total              float64   `json:"total"`
	FormattedTotal     string    `json:"formatted_total"`
	Currency           string    `json:"currency"`
	BillingName        string    `json:"billing_name"`
	BillingPhone       string    `json:"billing_phone"`
	BillingCountry     string    `json:"billing_country"`
	BillingAddress     string    `json:"billing_address"`
	PaymentMethod      string    `json:"payment_method"`
	PaymentMethodTitle string    `json:"payment_method_title"`
	ShippingMethod     string    `json:"shipping_method"`
	Items              []Item    `json:"items"`
	CreatedAt          time.Time `json:"created_at"`
	CustomerNote       string    `json:"customer_note"`
	CouponCodes        []string  `json:"coupon_codes"`
}

// ItemCount is the total purchased quantity across line items.
func (o Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}
