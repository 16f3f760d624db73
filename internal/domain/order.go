package domain

import (
	"net/mail"
	"strings"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

func (s OrderStatus) String() string {
	return string(s)
}

const (
	PaymentCashOnDelivery = "cod"
	CurrencyNPR           = "NPR"
)

type Customer struct {
	Name    string `json:"name" bson:"name"`
	Email   string `json:"email" bson:"email"`
	Phone   string `json:"phone" bson:"phone"`
	Address string `json:"address" bson:"address"`
}

func (c Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return invalid("customer name is required")
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return invalid("customer email is invalid")
	}
	if strings.TrimSpace(c.Address) == "" {
		return invalid("delivery address is required")
	}
	return nil
}

// OrderLine is a cart line frozen at checkout time.
type OrderLine struct {
	ProductID   string `json:"product_id" bson:"product_id"`
	ProductName string `json:"product_name" bson:"product_name"`
	Quantity    int    `json:"quantity" bson:"quantity"`
	UnitPrice   int64  `json:"unit_price" bson:"unit_price"`
	Subtotal    int64  `json:"subtotal" bson:"subtotal"`
}

type Order struct {
	ID             string      `json:"id" bson:"_id"`
	IdempotencyKey string      `json:"idempotency_key,omitempty" bson:"idempotency_key,omitempty"`
	SessionID      string      `json:"session_id" bson:"session_id"`
	Customer       Customer    `json:"customer" bson:"customer"`
	Lines          []OrderLine `json:"lines" bson:"lines"`
	TotalAmount    int64       `json:"total_amount" bson:"total_amount"`
	Currency       string      `json:"currency" bson:"currency"`
	PaymentMethod  string      `json:"payment_method" bson:"payment_method"`
	Status         OrderStatus `json:"status" bson:"status"`
	CreatedAt      time.Time   `json:"created_at" bson:"created_at"`
}

// ContactMessage is a storefront contact form submission.
type ContactMessage struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email"`
	Message   string    `json:"message" bson:"message"`
	CreatedAt time.Time `json:"timestamp" bson:"created_at"`
}

func (m ContactMessage) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return invalid("name is required")
	}
	if _, err := mail.ParseAddress(m.Email); err != nil {
		return invalid("email is invalid")
	}
	if strings.TrimSpace(m.Message) == "" {
		return invalid("message is required")
	}
	return nil
}
