package httpapi

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/corporategifts/giftsite/pkg/forms"
)

// Intake outcomes recorded per submission.
const (
	OutcomeAccepted = "accepted"
	OutcomeInvalid  = "invalid"
	OutcomeSpam     = "spam"
	OutcomeFailed   = "dispatch_failed"
)

type submitResponse struct {
	Status string    `json:"status"`
	ID     uuid.UUID `json:"id"`
}

// submitForm validates a form body and hands it to the dispatcher.
// Spam is answered exactly like an accepted submission.
func (s *Server) submitForm(w http.ResponseWriter, r *http.Request) error {
	kind, err := forms.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		return err
	}

	r.Body = http.MaxBytesReader(w, r.Body, forms.MaxBodySize)
	sub, err := s.intake.Parse(kind, r.Body)
	if err != nil {
		s.recorder.Submission(kind, OutcomeInvalid)
		return err
	}
	sub.ClientIP = clientIP(r)

	if err := s.dispatcher.Dispatch(r.Context(), sub); err != nil {
		s.recorder.Submission(kind, OutcomeFailed)
		return ErrServiceUnavailable("Your request could not be submitted, please try again",
			WithErrorCode("dispatch_failed"), WithError(err))
	}

	outcome := OutcomeAccepted
	if sub.Spam {
		outcome = OutcomeSpam
	}
	s.recorder.Submission(kind, outcome)
	s.logger.InfoContext(r.Context(), "form submission accepted",
		slog.String("kind", string(kind)),
		slog.String("submission_id", sub.ID.String()),
		slog.Bool("spam", sub.Spam),
	)

	writeJSON(w, http.StatusAccepted, submitResponse{Status: OutcomeAccepted, ID: sub.ID})
	return nil
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
