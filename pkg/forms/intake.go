package forms

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/corporategifts/giftsite/pkg/phone"
)

// MaxBodySize is the largest accepted request body.
const MaxBodySize = 64 << 10

// Intake turns raw request bodies into validated submissions.
type Intake struct {
	validate *validator.Validate
	now      func() time.Time
}

// IntakeOption configures an Intake.
type IntakeOption func(*Intake)

// WithClock replaces the clock used for ReceivedAt.
func WithClock(now func() time.Time) IntakeOption {
	return func(in *Intake) {
		if now != nil {
			in.now = now
		}
	}
}

// NewIntake creates an Intake with the uae_phone and budget_range rules registered.
func NewIntake(opts ...IntakeOption) (*Intake, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	if err := phone.RegisterValidation(v); err != nil {
		return nil, err
	}
	if err := v.RegisterValidation("budget_range", func(fl validator.FieldLevel) bool {
		return slices.Contains(BudgetRanges, fl.Field().String())
	}); err != nil {
		return nil, err
	}

	in := &Intake{validate: v, now: time.Now}
	for _, opt := range opts {
		opt(in)
	}
	return in, nil
}

// Parse decodes a body of the given kind. Bodies with a filled honeypot return
// a Submission marked as spam without validation.
func (in *Intake) Parse(kind Kind, body io.Reader) (*Submission, error) {
	p, err := newPayload(kind)
	if err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(io.LimitReader(body, MaxBodySize+1))
	if err != nil {
		return nil, errors.Join(ErrMalformedBody, err)
	}
	if len(raw) > MaxBodySize {
		return nil, ErrBodyTooLarge
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(p); err != nil {
		return nil, errors.Join(ErrMalformedBody, err)
	}

	if p.honeypot() != "" {
		s := p.submission()
		s.Spam = true
		in.stamp(s)
		return s, nil
	}

	p.clean()
	if err := in.validate.Struct(p); err != nil {
		return nil, in.translate(err)
	}

	s := p.submission()
	in.stamp(s)
	return s, nil
}

func (in *Intake) stamp(s *Submission) {
	s.ID = uuid.New()
	s.ReceivedAt = in.now().UTC()
}

func (in *Intake) translate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; !seen {
			fields[fe.Field()] = fieldMessage(fe)
		}
	}
	return &ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if fe.Field() == "phone" || fe.Field() == "contact_number" {
			return phone.UserMessage(phone.ErrRequired)
		}
		return "This field is required"
	case phone.ValidationTag:
		return phone.UserMessage(phone.ErrInvalidFormat)
	case "email":
		return "Please enter a valid email address"
	case "budget_range":
		return "Please select a budget range"
	case "min":
		if fe.Kind() == reflect.Int {
			return "Must be at least " + fe.Param()
		}
		return "Must be at least " + fe.Param() + " characters"
	case "max":
		if fe.Kind() == reflect.Int {
			return "Must be at most " + fe.Param()
		}
		return "Must be at most " + fe.Param() + " characters"
	}
	return "Invalid value"
}

func newPayload(kind Kind) (payload, error) {
	switch kind {
	case KindContact:
		return &ContactPayload{}, nil
	case KindCallback:
		return &CallbackPayload{}, nil
	case KindQuote:
		return &QuotePayload{}, nil
	case KindOrder:
		return &OrderPayload{}, nil
	}
	return nil, ErrUnknownKind
}
