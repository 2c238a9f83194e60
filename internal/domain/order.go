package domain

import "time"

// Order is a single completed purchase.
type Order struct {
	OrderID        string    `json:"order_id" db:"order_id"`
	CustomerID     string    `json:"customer_id" db:"customer_id"`
	ChannelID      string    `json:"channel_id" db:"channel_id"`
	PaymentMethod  string    `json:"payment_method" db:"payment_method"`
	DiscountAmount float64   `json:"discount_amount" db:"discount_amount"`
	FinalAmount    float64   `json:"final_amount" db:"final_amount"`
	Timestamp      time.Time `json:"timestamp" db:"ordered_at"`
}

// DiscountPercent is the share of the undiscounted price that was taken off,
// in percent. Orders with no value report 0.
func (o Order) DiscountPercent() float64 {
	gross := o.DiscountAmount + o.FinalAmount
	if gross <= 0 {
		return 0
	}
	return o.DiscountAmount / gross * 100
}

// OrderItem is one product line of an order, joined with the product and
// the parent order's amounts.
type OrderItem struct {
	OrderID        string    `json:"order_id" db:"order_id"`
	ProductName    string    `json:"product_name" db:"product_name"`
	Quantity       int       `json:"quantity" db:"quantity"`
	Price          float64   `json:"price" db:"price"`
	DiscountAmount float64   `json:"discount_amount" db:"discount_amount"`
	FinalAmount    float64   `json:"final_amount" db:"final_amount"`
	Timestamp      time.Time `json:"timestamp" db:"ordered_at"`
}

// Revenue is the line value after the order-level discount is spread
// proportionally over its items.
func (i OrderItem) Revenue() float64 {
	gross := float64(i.Quantity) * i.Price
	if i.FinalAmount <= 0 {
		return gross
	}
	return gross * (1 - i.DiscountAmount/i.FinalAmount)
}
