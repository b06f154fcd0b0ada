package domain

import (
	"slices"
	"time"
)

// Order status constants.
const (
	OrderStatusPlaced     = "placed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Payment status constants.
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// Order is a placed order as the shopper and the admin console see it.
type Order struct {
	ID              string         `json:"id"`
	UserID          string         `json:"user_id"`
	Status          string         `json:"status"`
	PaymentStatus   string         `json:"payment_status"`
	Items           []OrderItem    `json:"items"`
	ShippingAmount  int64          `json:"shipping_amount"`
	Currency        string         `json:"currency"`
	ShippingAddress *Address       `json:"shipping_address,omitempty"`
	CancelReason    string         `json:"cancel_reason,omitempty"`
	History         []StatusChange `json:"history,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// OrderItem is a purchased line. Price is the unit price paid, in cents.
type OrderItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Size      string `json:"size,omitempty"`
	Image     string `json:"image,omitempty"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// LineTotal returns the total price for this line item.
func (i OrderItem) LineTotal() int64 {
	return i.Price * int64(i.Quantity)
}

// Address is a shipping address.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
}

// StatusChange records when an order entered a status.
type StatusChange struct {
	Status string    `json:"status"`
	At     time.Time `json:"at"`
}

// OrderItemsFromCart copies cart lines into order items at their captured prices.
func OrderItemsFromCart(c *Cart) []OrderItem {
	items := make([]OrderItem, len(c.Lines))
	for i, l := range c.Lines {
		item := OrderItem{
			ProductID: l.ProductID,
			Name:      l.Product.Name,
			Size:      l.Size,
			Price:     l.UnitPrice,
			Quantity:  l.Quantity,
		}
		if len(l.Product.Images) > 0 {
			item.Image = l.Product.Images[0]
		}
		items[i] = item
	}
	return items
}

// Subtotal is the sum of the item line totals.
func (o *Order) Subtotal() int64 {
	var total int64
	for _, it := range o.Items {
		total += it.LineTotal()
	}
	return total
}

// TotalAmount is the subtotal plus shipping.
func (o *Order) TotalAmount() int64 {
	return o.Subtotal() + o.ShippingAmount
}

// ItemCount is the number of units across all items.
func (o *Order) ItemCount() int {
	var n int
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// ValidStatuses returns all valid order statuses in fulfilment order.
func ValidStatuses() []string {
	return []string{
		OrderStatusPlaced,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled,
	}
}

// IsValidStatus checks if a status string is valid.
func IsValidStatus(status string) bool {
	return slices.Contains(ValidStatuses(), status)
}

// AllowedTransitions defines which status transitions are valid. An order can
// be cancelled until it ships; delivered and cancelled are terminal.
func AllowedTransitions() map[string][]string {
	return map[string][]string{
		OrderStatusPlaced:     {OrderStatusProcessing, OrderStatusCancelled},
		OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
		OrderStatusShipped:    {OrderStatusDelivered},
		OrderStatusDelivered:  {},
		OrderStatusCancelled:  {},
	}
}

// CanTransitionTo checks if the order can transition to the target status.
func (o *Order) CanTransitionTo(target string) bool {
	allowed, ok := AllowedTransitions()[o.Status]
	if !ok {
		return false
	}
	return slices.Contains(allowed, target)
}

// SetStatus moves the order to status at the given time and records it in
// the history. Callers check CanTransitionTo first.
func (o *Order) SetStatus(status, reason string, at time.Time) {
	o.Status = status
	if status == OrderStatusCancelled {
		o.CancelReason = reason
	}
	o.History = append(o.History, StatusChange{Status: status, At: at})
	o.UpdatedAt = at
}

// OrderStep is one entry of the fulfilment timeline shown on an order page.
type OrderStep struct {
	Title     string
	Status    string
	Completed bool
	// At is when the step was reached; zero when unknown or not reached.
	At time.Time
}

// stepsCompletedBy lists, per current status, the fulfilment steps already done.
var stepsCompletedBy = map[string][]string{
	OrderStatusPlaced:     {OrderStatusPlaced},
	OrderStatusProcessing: {OrderStatusPlaced, OrderStatusProcessing},
	OrderStatusShipped:    {OrderStatusPlaced, OrderStatusProcessing, OrderStatusShipped},
	OrderStatusDelivered:  {OrderStatusPlaced, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered},
	OrderStatusCancelled:  {OrderStatusPlaced},
}

// Steps derives the placed, processing, shipped and delivered timeline.
// Placing always counts as done and is dated by CreatedAt. A cancelled order
// shows only the placed step as done.
func (o *Order) Steps() []OrderStep {
	done := stepsCompletedBy[o.Status]
	steps := []OrderStep{
		{Title: "Order Placed", Status: OrderStatusPlaced},
		{Title: "Processing", Status: OrderStatusProcessing},
		{Title: "Shipped", Status: OrderStatusShipped},
		{Title: "Delivered", Status: OrderStatusDelivered},
	}
	for i := range steps {
		steps[i].Completed = steps[i].Status == OrderStatusPlaced || slices.Contains(done, steps[i].Status)
		if !steps[i].Completed {
			continue
		}
		if steps[i].Status == OrderStatusPlaced {
			steps[i].At = o.CreatedAt
			continue
		}
		steps[i].At = o.enteredAt(steps[i].Status)
	}
	return steps
}

func (o *Order) enteredAt(status string) time.Time {
	for i := len(o.History) - 1; i >= 0; i-- {
		if o.History[i].Status == status {
			return o.History[i].At
		}
	}
	return time.Time{}
}

// Clone returns a deep copy of o.
func (o *Order) Clone() *Order {
	c := *o
	c.Items = slices.Clone(o.Items)
	c.History = slices.Clone(o.History)
	if o.ShippingAddress != nil {
		addr := *o.ShippingAddress
		c.ShippingAddress = &addr
	}
	return &c
}
