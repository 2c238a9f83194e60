package domain

import "time"

// Gender as stored on the customer record.
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

// CustomerType classifies a customer by number of orders placed.
type CustomerType string

const (
	CustomerNew       CustomerType = "new"
	CustomerReturning CustomerType = "returning"
)

// ClassifyCustomer derives the customer type from an order count. Customers
// without orders are unclassified and ok is false.
func ClassifyCustomer(orderCount int) (t CustomerType, ok bool) {
	switch {
	case orderCount == 1:
		return CustomerNew, true
	case orderCount > 1:
		return CustomerReturning, true
	default:
		return "", false
	}
}

// Customer is a shopper profile.
type Customer struct {
	CustomerID  string    `json:"customer_id" db:"customer_id"`
	Name        string    `json:"name" db:"name"`
	Phone       string    `json:"phone" db:"phone"`
	Email       string    `json:"email" db:"email"`
	Gender      Gender    `json:"gender" db:"gender"`
	DateOfBirth time.Time `json:"date_of_birth" db:"date_of_birth"`
}

// Review is a product review left by a customer.
type Review struct {
	CustomerID string `json:"customer_id" db:"customer_id"`
	Rating     int    `json:"rating" db:"rating"`
}

// Prediction holds model outputs for a customer.
type Prediction struct {
	CustomerID       string  `json:"customer_id" db:"customer_id"`
	LifetimeValue    float64 `json:"predicted_lifetime_value" db:"predicted_lifetime_value"`
	ChurnProbability float64 `json:"churn_probability" db:"churn_probability"`
}

// Affinity is a customer's affinity score (0..1) for a product.
type Affinity struct {
	CustomerID  string  `json:"customer_id" db:"customer_id"`
	ProductName string  `json:"product_name" db:"product_name"`
	Score       float64 `json:"affinity_score" db:"affinity_score"`
}
