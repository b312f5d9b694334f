package forms

import (
	"time"

	"github.com/google/uuid"
)

// UTM carries campaign attribution captured by the site.
type UTM struct {
	Source      string `json:"utm_source,omitempty"`
	Medium      string `json:"utm_medium,omitempty"`
	Campaign    string `json:"utm_campaign,omitempty"`
	Term        string `json:"utm_term,omitempty"`
	Content     string `json:"utm_content,omitempty"`
	LandingPage string `json:"landing_page,omitempty"`
	Referrer    string `json:"referrer,omitempty"`
}

// Order is the product part of an order submission.
type Order struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Address     string `json:"address_1,omitempty"`
	City        string `json:"city,omitempty"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	Quantity    int    `json:"quantity"`
}

// Submission is a validated form submission. Phone is always canonical.
type Submission struct {
	ReceivedAt   time.Time `json:"received_at"`
	Order        *Order    `json:"order,omitempty"`
	UTM          UTM       `json:"utm"`
	Kind         Kind      `json:"kind"`
	Name         string    `json:"name"`
	Company      string    `json:"company,omitempty"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone"`
	Message      string    `json:"message,omitempty"`
	Requirements string    `json:"requirements,omitempty"`
	Budget       string    `json:"budget,omitempty"`
	CallTime     string    `json:"call_time,omitempty"`
	EnquiryFor   string    `json:"enquiry_for,omitempty"`
	Product      string    `json:"product,omitempty"`
	ClientIP     string    `json:"client_ip,omitempty"`
	ID           uuid.UUID `json:"id"`
	Spam         bool      `json:"-"`
}

// Subject names what the submission is about, for notifications and logs.
func (s *Submission) Subject() string {
	switch {
	case s.Order != nil && s.Order.ProductName != "":
		return s.Order.ProductName
	case s.Product != "":
		return s.Product
	case s.EnquiryFor != "":
		return s.EnquiryFor
	}
	return string(s.Kind)
}

// ReplyAddress is the customer's email, used as Reply-To on notifications.
func (s *Submission) ReplyAddress() string {
	return s.Email
}
