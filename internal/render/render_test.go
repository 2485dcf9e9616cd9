package render

import (
	"strings"
	"testing"
	"time"

	"github.com/example/telegram-order-notify/internal/order"
	"github.com/example/telegram-order-notify/internal/settings"
)

func sampleOrder() order.Order {
	return order.Order{
		ID:                 1042,
		Status:             "processing",
		Total:              50,
		FormattedTotal:     "<span>&#36;50.00</span>",
		BillingName:        " Jane Doe ",
		BillingPhone:       "+15550100",
		BillingCountry:     "US",
		BillingAddress:     "1 Main St\n\nSpringfield,\tUS",
		PaymentMethodTitle: "Credit Card",
		ShippingMethod:     "Flat rate",
		Items: []order.Item{
			{Name: "Widget", Quantity: 2, ProductID: 11},
			{Name: "Gadget", Quantity: 1, ProductID: 12},
		},
		CreatedAt:    time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		CustomerNote: "leave at door",
		CouponCodes:  []string{"SAVE10", "VIP"},
	}
}

func testRenderer() Renderer {
	return Renderer{SiteName: "Acme Shop", AdminBaseURL: "https://shop.example/admin"}
}

func TestMessageDefaultTemplate(t *testing.T) {
	r := testRenderer()
	s := settings.Defaults()
	o := sampleOrder()

	got := r.Message(o, s)

	for _, want := range []string{
		"Order ID: #1042",
		"Site: Acme Shop",
		"Customer: Jane Doe",
		"Total: $50.00",
		"Status: Processing",
		"Date: 2026-03-14 09:30",
		"View Order: https://shop.example/admin/orders/1042",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("rendered message missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "<span>") || strings.Contains(got, "&#36;") {
		t.Fatalf("markup leaked into output:\n%s", got)
	}
}

func TestRenderDeterministic(t *testing.T) {
	r := testRenderer()
	s := settings.Defaults()
	o := sampleOrder()

	first := r.Message(o, s)
	for i := 0; i < 3; i++ {
		if got := r.Message(o, s); got != first {
			t.Fatal("rendering is not deterministic")
		}
	}
}

func TestRenderTokenInjective(t *testing.T) {
	r := testRenderer()
	s := settings.Settings{}
	tpl := "id={order_id} name={customer_name} phone={phone}"

	a := sampleOrder()
	b := sampleOrder()
	b.ID = 9999

	outA := r.Render(tpl, a, s)
	outB := r.Render(tpl, b, s)

	if outA == outB {
		t.Fatal("changing order id should change the output")
	}
	if strings.Replace(outA, "id=1042", "id=9999", 1) != outB {
		t.Fatalf("more than the order id token changed:\n%s\n%s", outA, outB)
	}
}

func TestRenderProductsListGated(t *testing.T) {
	r := testRenderer()
	o := sampleOrder()
	tpl := "items:\n{products_list}"

	plain := r.Render(tpl, o, settings.Settings{})
	if strings.Contains(plain, "Widget") {
		t.Fatalf("products list rendered while disabled:\n%s", plain)
	}

	withList := r.Render(tpl, o, settings.Settings{IncludeProductsList: true})
	if !strings.Contains(withList, "• Widget × 2") || !strings.Contains(withList, "• Gadget × 1") {
		t.Fatalf("products list malformed:\n%s", withList)
	}
}

func TestRenderExtraFieldsGated(t *testing.T) {
	r := testRenderer()
	o := sampleOrder()
	tpl := "addr={billing_address} coupons={coupon_used} notes={order_notes}"

	off := r.Render(tpl, o, settings.Settings{})
	if off != "addr= coupons= notes=" {
		t.Fatalf("extra fields rendered while disabled: %q", off)
	}

	on := r.Render(tpl, o, settings.Settings{IncludeExtraFields: true})
	if !strings.Contains(on, "addr=1 Main St Springfield, US") {
		t.Fatalf("billing address whitespace not collapsed: %q", on)
	}
	if !strings.Contains(on, "coupons=SAVE10,VIP") || !strings.Contains(on, "notes=leave at door") {
		t.Fatalf("extra fields missing: %q", on)
	}
}

func TestRenderUnknownTokensPassThrough(t *testing.T) {
	r := testRenderer()
	got := r.Render("hello {unknown_token} {order_id}", sampleOrder(), settings.Settings{})
	if got != "hello {unknown_token} 1042" {
		t.Fatalf("unknown token mangled: %q", got)
	}
}

func TestMessagePerStatusOverride(t *testing.T) {
	r := testRenderer()
	s := settings.Defaults()
	s.PerStatusTemplates = map[string]string{"processing": "override for #{order_id}"}

	if got := r.Message(sampleOrder(), s); got != "override for #1042" {
		t.Fatalf("per-status template not selected: %q", got)
	}
}

func TestMessageRichModeKeepsMarkup(t *testing.T) {
	r := testRenderer()
	s := settings.Defaults()
	s.RichMessagesEnabled = true
	s.Template = "<b>Order {order_id}</b>"

	if got := r.Message(sampleOrder(), s); got != "<b>Order 1042</b>" {
		t.Fatalf("rich mode should keep intentional markup: %q", got)
	}

	s.RichMessagesEnabled = false
	if got := r.Message(sampleOrder(), s); got != "Order 1042" {
		t.Fatalf("plain mode should strip markup: %q", got)
	}
}

func TestQuantityAndShipping(t *testing.T) {
	r := testRenderer()
	got := r.Render("{quantity}|{shipping_method}|{payment_method}", sampleOrder(), settings.Settings{})
	if got != "3|Flat rate|Credit Card" {
		t.Fatalf("unexpected render: %q", got)
	}
}
