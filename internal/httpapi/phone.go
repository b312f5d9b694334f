package httpapi

import (
	"errors"
	"net/http"

	"github.com/corporategifts/giftsite/pkg/phone"
)

type phoneCheckRequest struct {
	Phone string `json:"phone"`
}

type phoneCheckResponse struct {
	Normalized string     `json:"normalized"`
	Kind       phone.Kind `json:"kind,omitempty"`
	Error      string     `json:"error,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	Valid      bool       `json:"valid"`
}

// checkPhone lets the site validate a number as the user types. An invalid
// number is a normal 200 answer, not an error.
func (s *Server) checkPhone(w http.ResponseWriter, r *http.Request) error {
	var req phoneCheckRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	resp := phoneCheckResponse{Normalized: phone.Normalize(req.Phone)}
	if err := phone.Validate(req.Phone); err != nil {
		resp.Error = phone.UserMessage(err)
		resp.Reason = err.Error()
		if errors.Is(err, phone.ErrRequired) {
			resp.Normalized = ""
		}
	} else {
		resp.Valid = true
		resp.Kind, _ = phone.KindOf(req.Phone)
	}

	writeJSON(w, http.StatusOK, resp)
	return nil
}
