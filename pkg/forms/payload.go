package forms

import (
	"strconv"
	"strings"

	"github.com/corporategifts/giftsite/pkg/phone"
	"github.com/corporategifts/giftsite/pkg/sanitizer"
)

// BudgetRanges are the budget options offered by the contact form.
var BudgetRanges = []string{
	"<AED 1,000",
	"AED 1,000-AED 5,000",
	"AED 5,000-AED 10,000",
	"AED 10,000-AED 20,000",
	"AED 20,000-AED 50,000",
	">AED 50,000",
}

// payload is implemented by every per-kind request body.
type payload interface {
	clean()
	honeypot() string
	submission() *Submission
}

// Attribution is embedded in every payload.
type Attribution struct {
	Website     string `json:"website"`
	UTMSource   string `json:"utm_source" validate:"max=200"`
	UTMMedium   string `json:"utm_medium" validate:"max=200"`
	UTMCampaign string `json:"utm_campaign" validate:"max=200"`
	UTMTerm     string `json:"utm_term" validate:"max=200"`
	UTMContent  string `json:"utm_content" validate:"max=200"`
	LandingPage string `json:"landing_page" validate:"max=2000"`
	Referrer    string `json:"referrer" validate:"max=2000"`
}

func (a *Attribution) clean() {
	for _, f := range []*string{&a.UTMSource, &a.UTMMedium, &a.UTMCampaign, &a.UTMTerm, &a.UTMContent, &a.LandingPage, &a.Referrer} {
		*f = sanitizer.PlainText(*f)
	}
}

func (a *Attribution) honeypot() string {
	return strings.TrimSpace(a.Website)
}

func (a *Attribution) utm() UTM {
	return UTM{
		Source:      a.UTMSource,
		Medium:      a.UTMMedium,
		Campaign:    a.UTMCampaign,
		Term:        a.UTMTerm,
		Content:     a.UTMContent,
		LandingPage: a.LandingPage,
		Referrer:    a.Referrer,
	}
}

// ContactPayload is the body of the contact form.
type ContactPayload struct {
	Attribution
	Name          string `json:"name" validate:"required,min=2,max=120"`
	Email         string `json:"email" validate:"required,email,max=254"`
	ContactNumber string `json:"contact_number" validate:"required,uae_phone"`
	Requirements  string `json:"requirements" validate:"required,max=2000"`
	Budget        string `json:"budget" validate:"required,budget_range"`
	Message       string `json:"message" validate:"max=5000"`
}

func (p *ContactPayload) clean() {
	p.Attribution.clean()
	p.Name = sanitizer.PlainText(p.Name)
	p.Email = strings.ToLower(sanitizer.PlainText(p.Email))
	p.ContactNumber = canonicalPhone(p.ContactNumber)
	p.Requirements = sanitizer.Multiline(p.Requirements)
	p.Budget = strings.TrimSpace(p.Budget)
	p.Message = sanitizer.Multiline(p.Message)
}

func (p *ContactPayload) submission() *Submission {
	return &Submission{
		Kind:         KindContact,
		Name:         p.Name,
		Email:        p.Email,
		Phone:        p.ContactNumber,
		Requirements: p.Requirements,
		Budget:       p.Budget,
		Message:      p.Message,
		UTM:          p.utm(),
	}
}

// CallbackPayload is the body of the callback request modal.
type CallbackPayload struct {
	Attribution
	Name         string `json:"name" validate:"required,min=2,max=120"`
	Phone        string `json:"phone" validate:"required,uae_phone"`
	CallBackTime string `json:"call_back_time" validate:"required,max=100"`
	EnquiryFor   string `json:"enquiry_for" validate:"required,max=200"`
}

func (p *CallbackPayload) clean() {
	p.Attribution.clean()
	p.Name = sanitizer.PlainText(p.Name)
	p.Phone = canonicalPhone(p.Phone)
	p.CallBackTime = sanitizer.PlainText(p.CallBackTime)
	p.EnquiryFor = sanitizer.PlainText(p.EnquiryFor)
}

func (p *CallbackPayload) submission() *Submission {
	return &Submission{
		Kind:       KindCallback,
		Name:       p.Name,
		Phone:      p.Phone,
		CallTime:   p.CallBackTime,
		EnquiryFor: p.EnquiryFor,
		UTM:        p.utm(),
	}
}

// QuotePayload is the body of the corporate quote form.
type QuotePayload struct {
	Attribution
	CompanyName   string `json:"company_name" validate:"required,max=200"`
	ContactPerson string `json:"contact_person" validate:"required,min=2,max=120"`
	Email         string `json:"email" validate:"required,email,max=254"`
	Phone         string `json:"phone" validate:"required,uae_phone"`
	Product       string `json:"product" validate:"max=200"`
	Requirements  string `json:"requirements" validate:"max=5000"`
}

func (p *QuotePayload) clean() {
	p.Attribution.clean()
	p.CompanyName = sanitizer.PlainText(p.CompanyName)
	p.ContactPerson = sanitizer.PlainText(p.ContactPerson)
	p.Email = strings.ToLower(sanitizer.PlainText(p.Email))
	p.Phone = canonicalPhone(p.Phone)
	p.Product = sanitizer.PlainText(p.Product)
	p.Requirements = sanitizer.Multiline(p.Requirements)
}

func (p *QuotePayload) submission() *Submission {
	return &Submission{
		Kind:         KindQuote,
		Name:         p.ContactPerson,
		Company:      p.CompanyName,
		Email:        p.Email,
		Phone:        p.Phone,
		Product:      p.Product,
		Requirements: p.Requirements,
		UTM:          p.utm(),
	}
}

// OrderPayload is the body of the single-product quote page.
type OrderPayload struct {
	Attribution
	FirstName   string    `json:"first_name" validate:"required,max=80"`
	LastName    string    `json:"last_name" validate:"required,max=80"`
	Email       string    `json:"email" validate:"required,email,max=254"`
	Phone       string    `json:"phone" validate:"required,uae_phone"`
	Address     string    `json:"address_1" validate:"max=300"`
	City        string    `json:"city" validate:"max=100"`
	ProductID   ProductID `json:"product_id" validate:"required,max=64"`
	ProductName string    `json:"product_name" validate:"max=200"`
	Quantity    int       `json:"quantity" validate:"required,min=1,max=100000"`
	Note        string    `json:"note" validate:"max=5000"`
}

func (p *OrderPayload) clean() {
	p.Attribution.clean()
	p.FirstName = sanitizer.PlainText(p.FirstName)
	p.LastName = sanitizer.PlainText(p.LastName)
	p.Email = strings.ToLower(sanitizer.PlainText(p.Email))
	p.Phone = canonicalPhone(p.Phone)
	p.Address = sanitizer.PlainText(p.Address)
	p.City = sanitizer.PlainText(p.City)
	p.ProductID = ProductID(sanitizer.PlainText(string(p.ProductID)))
	p.ProductName = sanitizer.PlainText(p.ProductName)
	p.Note = sanitizer.Multiline(p.Note)
}

func (p *OrderPayload) submission() *Submission {
	return &Submission{
		Kind:    KindOrder,
		Name:    strings.TrimSpace(p.FirstName + " " + p.LastName),
		Email:   p.Email,
		Phone:   p.Phone,
		Message: p.Note,
		UTM:     p.utm(),
		Order: &Order{
			FirstName:   p.FirstName,
			LastName:    p.LastName,
			Address:     p.Address,
			City:        p.City,
			ProductID:   string(p.ProductID),
			ProductName: p.ProductName,
			Quantity:    p.Quantity,
		},
	}
}

// ProductID accepts both JSON numbers and strings.
type ProductID string

func (id *ProductID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	if s == "null" {
		s = ""
	}
	*id = ProductID(s)
	return nil
}

// canonicalPhone normalizes non-empty input so "required" still fires on blanks.
func canonicalPhone(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	return phone.Normalize(raw)
}
