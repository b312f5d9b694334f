package forms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Sink delivers submissions to one external collaborator.
type Sink interface {
	// Name is a stable identifier used in logs and queued jobs.
	Name() string
	// Accepts reports whether the sink handles submissions of kind.
	Accepts(kind Kind) bool
	Deliver(ctx context.Context, s *Submission) error
}

// Relay is the set of configured sinks.
type Relay struct {
	byName map[string]Sink
	sinks  []Sink
}

// NewRelay registers sinks in order. Nil sinks are skipped.
func NewRelay(sinks ...Sink) *Relay {
	r := &Relay{byName: make(map[string]Sink, len(sinks))}
	for _, s := range sinks {
		if s == nil {
			continue
		}
		r.byName[s.Name()] = s
		r.sinks = append(r.sinks, s)
	}
	return r
}

// For returns the sinks accepting kind.
func (r *Relay) For(kind Kind) []Sink {
	out := make([]Sink, 0, len(r.sinks))
	for _, s := range r.sinks {
		if s.Accepts(kind) {
			out = append(out, s)
		}
	}
	return out
}

// Sink looks up a sink by name.
func (r *Relay) Sink(name string) (Sink, error) {
	s, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSink, name)
	}
	return s, nil
}

// Names lists registered sink names in registration order.
func (r *Relay) Names() []string {
	names := make([]string, 0, len(r.sinks))
	for _, s := range r.sinks {
		names = append(names, s.Name())
	}
	return names
}

// postJSON sends body to url and treats any non-2xx answer as a DeliveryError.
func postJSON(ctx context.Context, client *http.Client, sink, url string, body any, header http.Header) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("forms: %s: encode body: %w", sink, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("forms: %s: create request: %w", sink, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("forms: %s: %w", sink, err)
	}
	defer resp.Body.Close()

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &DeliveryError{
			Sink:   sink,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(snippet)),
		}
	}
	return nil
}
