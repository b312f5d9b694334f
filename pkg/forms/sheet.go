package forms

import (
	"context"
	"net/http"
	"time"
)

// SheetSink appends submissions to the spreadsheet through its HTTP endpoint.
type SheetSink struct {
	client *http.Client
	url    string
	token  string
}

// NewSheetSink creates a sink posting to url. A non-empty token is sent as
// the X-Sheet-Token header.
func NewSheetSink(client *http.Client, url, token string) *SheetSink {
	if client == nil {
		client = http.DefaultClient
	}
	return &SheetSink{client: client, url: url, token: token}
}

func (s *SheetSink) Name() string { return "sheet" }

func (s *SheetSink) Accepts(Kind) bool { return true }

func (s *SheetSink) Deliver(ctx context.Context, sub *Submission) error {
	var header http.Header
	if s.token != "" {
		header = http.Header{"X-Sheet-Token": {s.token}}
	}
	return postJSON(ctx, s.client, s.Name(), s.url, SheetRow(sub), header)
}

// SheetRow flattens a submission into the field names the spreadsheet script
// reads for its kind.
func SheetRow(s *Submission) map[string]any {
	row := map[string]any{
		"formType":     string(s.Kind),
		"submissionId": s.ID.String(),
		"date":         s.ReceivedAt.Format(time.DateTime),
		"utm_source":   s.UTM.Source,
		"utm_medium":   s.UTM.Medium,
		"utm_campaign": s.UTM.Campaign,
		"utm_term":     s.UTM.Term,
		"utm_content":  s.UTM.Content,
	}

	switch s.Kind {
	case KindQuote:
		row["company_name"] = s.Company
		row["contact_person"] = s.Name
		row["email"] = s.Email
		row["phone"] = s.Phone
		row["requirements"] = s.Requirements
		row["product"] = s.Product
	case KindCallback:
		row["name"] = s.Name
		row["phone"] = s.Phone
		row["enquiry_for"] = s.EnquiryFor
		row["call_time"] = s.CallTime
	case KindOrder:
		row["name"] = s.Name
		row["contact_number"] = s.Phone
		row["email"] = s.Email
		row["note"] = s.Message
		if s.Order != nil {
			row["product_id"] = s.Order.ProductID
			row["product_name"] = s.Order.ProductName
			row["quantity"] = s.Order.Quantity
		}
	default:
		row["name"] = s.Name
		row["email"] = s.Email
		row["contact_number"] = s.Phone
		row["message"] = s.Message
		row["requirements"] = s.Requirements
		row["budget_range"] = s.Budget
	}
	return row
}
