package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var orderPlacedAt = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func sampleOrder(status string) *Order {
	return &Order{
		ID:     "ord-1",
		UserID: "user-1",
		Status: status,
		Items: []OrderItem{
			{ProductID: "prod-a", Name: "Linen Shirt", Size: "M", Price: 1999, Quantity: 3},
			{ProductID: "prod-c", Name: "Tote Bag", Price: 1250, Quantity: 1},
		},
		ShippingAmount: 500,
		CreatedAt:      orderPlacedAt,
	}
}

// ============================================================================
// Totals
// ============================================================================

func TestOrder_Totals(t *testing.T) {
	o := sampleOrder(OrderStatusPlaced)
	assert.Equal(t, int64(5997), o.Items[0].LineTotal())
	assert.Equal(t, int64(7247), o.Subtotal())
	assert.Equal(t, int64(7747), o.TotalAmount())
	assert.Equal(t, 4, o.ItemCount())
}

func TestOrderItemsFromCart_KeepsCapturedPrice(t *testing.T) {
	cart := NewCart("user-1", orderPlacedAt, time.Hour)
	shirt := Product{ID: "prod-a", Name: "Linen Shirt", Price: 1000, Images: []string{"a.jpg", "b.jpg"}, Sizes: []string{"M"}}
	require.NoError(t, cart.Add(NewLine(shirt, "M", 2)))
	shirt.Price = 5000

	items := OrderItemsFromCart(cart)
	require.Len(t, items, 1)
	assert.Equal(t, OrderItem{ProductID: "prod-a", Name: "Linen Shirt", Size: "M", Image: "a.jpg", Price: 1000, Quantity: 2}, items[0])
}

// ============================================================================
// Status transitions
// ============================================================================

func TestIsValidStatus(t *testing.T) {
	for _, s := range ValidStatuses() {
		assert.True(t, IsValidStatus(s), "expected %q to be valid", s)
	}
	assert.False(t, IsValidStatus(""))
	assert.False(t, IsValidStatus("canceled"))
	assert.False(t, IsValidStatus("SHIPPED"))
}

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{OrderStatusPlaced, OrderStatusProcessing, true},
		{OrderStatusPlaced, OrderStatusCancelled, true},
		{OrderStatusPlaced, OrderStatusShipped, false},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusProcessing, OrderStatusCancelled, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusPlaced, false},
		{OrderStatusCancelled, OrderStatusProcessing, false},
		{OrderStatusPlaced, OrderStatusPlaced, false},
		{"unknown", OrderStatusPlaced, false},
	}
	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.want, sampleOrder(tt.from).CanTransitionTo(tt.to))
		})
	}
}

func TestSetStatus_RecordsHistoryAndReason(t *testing.T) {
	o := sampleOrder(OrderStatusPlaced)
	at := orderPlacedAt.Add(time.Hour)

	o.SetStatus(OrderStatusProcessing, "ignored", at)
	assert.Empty(t, o.CancelReason)

	o.SetStatus(OrderStatusCancelled, "customer request", at.Add(time.Hour))
	assert.Equal(t, "customer request", o.CancelReason)
	assert.Equal(t, at.Add(time.Hour), o.UpdatedAt)
	assert.Equal(t, []StatusChange{
		{Status: OrderStatusProcessing, At: at},
		{Status: OrderStatusCancelled, At: at.Add(time.Hour)},
	}, o.History)
}

// ============================================================================
// Steps
// ============================================================================

func completedSteps(o *Order) []bool {
	var out []bool
	for _, s := range o.Steps() {
		out = append(out, s.Completed)
	}
	return out
}

func TestSteps_CompletionFollowsStatus(t *testing.T) {
	tests := []struct {
		status string
		want   []bool
	}{
		{OrderStatusPlaced, []bool{true, false, false, false}},
		{OrderStatusProcessing, []bool{true, true, false, false}},
		{OrderStatusShipped, []bool{true, true, true, false}},
		{OrderStatusDelivered, []bool{true, true, true, true}},
		{OrderStatusCancelled, []bool{true, false, false, false}},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.want, completedSteps(sampleOrder(tt.status)))
		})
	}
}

func TestSteps_TitlesAndDates(t *testing.T) {
	o := sampleOrder(OrderStatusPlaced)
	shippedAt := orderPlacedAt.Add(48 * time.Hour)
	o.SetStatus(OrderStatusProcessing, "", orderPlacedAt.Add(2*time.Hour))
	o.SetStatus(OrderStatusShipped, "", shippedAt)

	steps := o.Steps()
	require.Len(t, steps, 4)
	assert.Equal(t, []string{"Order Placed", "Processing", "Shipped", "Delivered"},
		[]string{steps[0].Title, steps[1].Title, steps[2].Title, steps[3].Title})
	assert.Equal(t, orderPlacedAt, steps[0].At)
	assert.Equal(t, orderPlacedAt.Add(2*time.Hour), steps[1].At)
	assert.Equal(t, shippedAt, steps[2].At)
	assert.True(t, steps[3].At.IsZero())
}

func TestSteps_UnknownStatusOnlyShowsPlaced(t *testing.T) {
	assert.Equal(t, []bool{true, false, false, false}, completedSteps(sampleOrder("lost")))
}

func TestOrder_CloneIsDeep(t *testing.T) {
	o := sampleOrder(OrderStatusPlaced)
	o.ShippingAddress = &Address{Street: "1 Main St", City: "Springfield", ZipCode: "12345", Country: "US"}

	c := o.Clone()
	c.Items[0].Quantity = 9
	c.ShippingAddress.City = "Shelbyville"
	c.SetStatus(OrderStatusProcessing, "", orderPlacedAt)

	assert.Equal(t, 3, o.Items[0].Quantity)
	assert.Equal(t, "Springfield", o.ShippingAddress.City)
	assert.Empty(t, o.History)
	assert.Equal(t, OrderStatusPlaced, o.Status)
}
