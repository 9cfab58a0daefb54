package api

import (
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/roadlog/internal/accuracy"
	"github.com/MikeSquared-Agency/roadlog/internal/interpreter"
	"github.com/MikeSquared-Agency/roadlog/internal/processor"
	"github.com/MikeSquared-Agency/roadlog/internal/registration"
)

type interpretRequest struct {
	Transcript       string `json:"transcript" validate:"required"`
	RegistrationType string `json:"registration_type" validate:"omitempty,regtype"`
}

// interpretResponse flattens the interpretation and adds the review flags
// the confirmation screen needs.
type interpretResponse struct {
	*interpreter.Interpretation
	Uncertain   bool `json:"uncertain"`
	Submittable bool `json:"submittable"`
}

func newInterpretResponse(in *interpreter.Interpretation) interpretResponse {
	return interpretResponse{Interpretation: in, Uncertain: in.Uncertain(), Submittable: in.Submittable()}
}

func (s *Server) interpret(w http.ResponseWriter, r *http.Request) {
	var req interpretRequest
	if err := s.bind(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.transcriptFits(w, req.Transcript) {
		return
	}

	in, err := s.interp.Interpret(req.Transcript, registration.Type(req.RegistrationType))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newInterpretResponse(in))
}

type registerRequest struct {
	MemoID           string     `json:"memo_id"`
	UserID           string     `json:"user_id" validate:"required"`
	ContractID       string     `json:"contract_id"`
	Transcript       string     `json:"transcript" validate:"required"`
	RegistrationType string     `json:"registration_type" validate:"omitempty,regtype"`
	RecordedAt       *time.Time `json:"recorded_at"`
}

type registerResponse struct {
	ID             uuid.UUID         `json:"id"`
	Interpretation interpretResponse `json:"interpretation"`
	Duplicate      bool              `json:"duplicate,omitempty"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := s.bind(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.transcriptFits(w, req.Transcript) {
		return
	}

	pr := processor.RegisterRequest{
		MemoID:           req.MemoID,
		UserID:           req.UserID,
		ContractID:       req.ContractID,
		Transcript:       req.Transcript,
		RegistrationType: registration.Type(req.RegistrationType),
	}
	if req.RecordedAt != nil {
		pr.RecordedAt = *req.RecordedAt
	}

	res, err := s.registrar.Register(r.Context(), pr)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	status := http.StatusCreated
	if res.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, registerResponse{
		ID:             res.ID,
		Interpretation: newInterpretResponse(res.Interpretation),
		Duplicate:      res.Duplicate,
	})
}

type feedbackRequest struct {
	RegistrationID string `json:"registration_id" validate:"omitempty,uuid"`
	Transcript     string `json:"transcript" validate:"required_without=RegistrationID"`
	PredictedType  string `json:"predicted_type" validate:"omitempty,regtype"`
	CorrectedType  string `json:"corrected_type" validate:"required,regtype"`
}

type feedbackResponse struct {
	ID       uuid.UUID      `json:"id"`
	Correct  bool           `json:"correct"`
	Accuracy accuracy.Stats `json:"accuracy"`
}

func (s *Server) feedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := s.bind(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	fr := processor.FeedbackRequest{
		Transcript:    req.Transcript,
		PredictedType: registration.Type(req.PredictedType),
		CorrectedType: registration.Type(req.CorrectedType),
	}
	if req.RegistrationID != "" {
		id, err := uuid.Parse(req.RegistrationID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "registration_id must be a UUID")
			return
		}
		fr.RegistrationID = id
	}

	res, err := s.registrar.RecordFeedback(r.Context(), fr)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, feedbackResponse{ID: res.ID, Correct: res.Correct, Accuracy: res.Accuracy})
}

func (s *Server) transcriptFits(w http.ResponseWriter, transcript string) bool {
	if s.maxTranscript > 0 && utf8.RuneCountInString(transcript) > s.maxTranscript {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("transcript exceeds %d characters", s.maxTranscript))
		return false
	}
	return true
}
