package forms

import (
	"context"
	"net/http"
)

// DefaultFormIDs maps kinds to forms API form ids.
var DefaultFormIDs = map[Kind]int{
	KindCallback: 4,
}

// FormsAPISink submits entries to the WordPress forms plugin REST API.
type FormsAPISink struct {
	client  *http.Client
	formIDs map[Kind]int
	url     string
}

// NewFormsAPISink creates a sink for the kinds present in formIDs.
// A nil map selects DefaultFormIDs.
func NewFormsAPISink(client *http.Client, url string, formIDs map[Kind]int) *FormsAPISink {
	if client == nil {
		client = http.DefaultClient
	}
	if formIDs == nil {
		formIDs = DefaultFormIDs
	}
	return &FormsAPISink{client: client, url: url, formIDs: formIDs}
}

func (s *FormsAPISink) Name() string { return "forms_api" }

func (s *FormsAPISink) Accepts(kind Kind) bool {
	_, ok := s.formIDs[kind]
	return ok
}

func (s *FormsAPISink) Deliver(ctx context.Context, sub *Submission) error {
	body := map[string]any{
		"form_id": s.formIDs[sub.Kind],
		"data":    formsAPIData(sub),
	}
	return postJSON(ctx, s.client, s.Name(), s.url, body, nil)
}

func formsAPIData(s *Submission) map[string]string {
	data := map[string]string{
		"name":  s.Name,
		"phone": s.Phone,
	}
	switch s.Kind {
	case KindCallback:
		data["call_back_time"] = s.CallTime
		data["enquiry_for"] = s.EnquiryFor
	default:
		data["email"] = s.Email
		data["message"] = s.Message
		if s.Requirements != "" {
			data["requirements"] = s.Requirements
		}
	}
	return data
}

// QuoteSink forwards order submissions to the shop's quote endpoint.
type QuoteSink struct {
	client *http.Client
	url    string
}

// NewQuoteSink creates a sink posting orders to url.
func NewQuoteSink(client *http.Client, url string) *QuoteSink {
	if client == nil {
		client = http.DefaultClient
	}
	return &QuoteSink{client: client, url: url}
}

func (s *QuoteSink) Name() string { return "shop_quote" }

func (s *QuoteSink) Accepts(kind Kind) bool { return kind == KindOrder }

func (s *QuoteSink) Deliver(ctx context.Context, sub *Submission) error {
	if sub.Order == nil {
		return nil
	}

	body := map[string]any{
		"billing": map[string]string{
			"first_name": sub.Order.FirstName,
			"last_name":  sub.Order.LastName,
			"email":      sub.Email,
			"phone":      sub.Phone,
			"address_1":  sub.Order.Address,
			"city":       sub.Order.City,
			"country":    "AE",
		},
		"items": []map[string]any{
			{"product_id": sub.Order.ProductID, "quantity": sub.Order.Quantity},
		},
		"note": sub.Message,
	}
	return postJSON(ctx, s.client, s.Name(), s.url, body, nil)
}
