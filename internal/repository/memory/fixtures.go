package memory

import (
	"time"

	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/domain"
)

// OtherShopper owns the sample orders that do not belong to the signed-in user.
const OtherShopper = "guest-42"

const flatShipping = 599

var (
	linenShirt = domain.Product{ID: "prod-linen-shirt", Name: "Linen Shirt", Price: 4999, Images: []string{"https://images.example.com/linen-shirt.jpg"}, Sizes: []string{"S", "M", "L", "XL"}}
	wrapDress  = domain.Product{ID: "prod-wrap-dress", Name: "Wrap Dress", Price: 7900, Images: []string{"https://images.example.com/wrap-dress.jpg"}, Sizes: []string{"XS", "S", "M", "L"}}
	runner     = domain.Product{ID: "prod-runner", Name: "Everyday Runner", Price: 11000, Images: []string{"https://images.example.com/runner.jpg"}, Sizes: []string{"40", "41", "42", "43", "44"}}
	canvasTote = domain.Product{ID: "prod-canvas-tote", Name: "Canvas Tote", Price: 2500, Images: []string{"https://images.example.com/canvas-tote.jpg"}}
	kidsHoodie = domain.Product{ID: "prod-kids-hoodie", Name: "Kids Hoodie", Price: 2999, Images: []string{"https://images.example.com/kids-hoodie.jpg"}, Sizes: []string{"4Y", "6Y", "8Y", "10Y"}}
)

type sampleLine struct {
	product  domain.Product
	size     string
	quantity int
}

type sampleOrder struct {
	id       string
	owner    string
	placed   time.Duration
	payment  string
	lines    []sampleLine
	statuses []string
	reason   string
}

// SampleOrders returns the demo order history used when no storefront API is
// configured: four orders for userID across every fulfilment stage and one
// for OtherShopper. Times are relative to now.
func SampleOrders(userID string, now time.Time) []*domain.Order {
	samples := []sampleOrder{
		{
			id: "ord-1001", owner: userID, placed: 20 * 24 * time.Hour, payment: domain.PaymentStatusPaid,
			lines:    []sampleLine{{linenShirt, "M", 2}, {canvasTote, "", 1}},
			statuses: []string{domain.OrderStatusProcessing, domain.OrderStatusShipped, domain.OrderStatusDelivered},
		},
		{
			id: "ord-1002", owner: userID, placed: 5 * 24 * time.Hour, payment: domain.PaymentStatusPaid,
			lines:    []sampleLine{{runner, "42", 1}},
			statuses: []string{domain.OrderStatusProcessing, domain.OrderStatusShipped},
		},
		{
			id: "ord-1003", owner: userID, placed: 9 * 24 * time.Hour, payment: domain.PaymentStatusFailed,
			lines:    []sampleLine{{wrapDress, "S", 1}},
			statuses: []string{domain.OrderStatusCancelled},
			reason:   "payment declined",
		},
		{
			id: "ord-1004", owner: userID, placed: 2 * time.Hour, payment: domain.PaymentStatusPending,
			lines: []sampleLine{{kidsHoodie, "6Y", 2}, {canvasTote, "", 1}},
		},
		{
			id: "ord-2001", owner: OtherShopper, placed: 30 * time.Hour, payment: domain.PaymentStatusPaid,
			lines:    []sampleLine{{wrapDress, "M", 1}, {linenShirt, "L", 1}},
			statuses: []string{domain.OrderStatusProcessing},
		},
	}

	orders := make([]*domain.Order, 0, len(samples))
	for _, s := range samples {
		orders = append(orders, s.build(now))
	}
	return orders
}

func (s sampleOrder) build(now time.Time) *domain.Order {
	placed := now.Add(-s.placed).UTC().Truncate(time.Minute)

	cart := domain.NewCart(s.owner, placed, time.Hour)
	for _, l := range s.lines {
		line := domain.NewLine(l.product, l.size, l.quantity)
		if err := cart.Add(line); err != nil {
			panic("memory: invalid sample order " + s.id + ": " + err.Error())
		}
	}

	o := &domain.Order{
		ID:             s.id,
		UserID:         s.owner,
		Status:         domain.OrderStatusPlaced,
		PaymentStatus:  s.payment,
		Items:          domain.OrderItemsFromCart(cart),
		ShippingAmount: flatShipping,
		Currency:       cart.Currency,
		ShippingAddress: &domain.Address{
			Street:  "221 Market Street",
			City:    "San Francisco",
			State:   "CA",
			ZipCode: "94105",
			Country: "US",
		},
		CreatedAt: placed,
		UpdatedAt: placed,
	}

	// Each later stage is reached a day after the previous one.
	at := placed
	for _, status := range s.statuses {
		at = at.Add(24 * time.Hour)
		if at.After(now) {
			at = now.UTC().Truncate(time.Minute)
		}
		o.SetStatus(status, s.reason, at)
	}
	return o
}
