package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"civisense/pkg/complaint"
	"civisense/pkg/middleware"
	"civisense/pkg/queue"
	"civisense/pkg/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *server) createDraft(w http.ResponseWriter, r *http.Request) {
	f := complaint.NewForm(uuid.NewString())
	if err := s.drafts.Create(r.Context(), f); err != nil {
		middleware.LogError(middleware.GetTraceID(r), "Failed to create draft", err)
		response.Error(w, http.StatusInternalServerError, "Failed to start complaint", "")
		return
	}
	response.Success(w, http.StatusCreated, "Draft created", f.View())
}

func (s *server) getDraft(w http.ResponseWriter, r *http.Request) {
	f, err := s.drafts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.draftError(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, "Draft fetched", f.View())
}

func (s *server) updateDraft(w http.ResponseWriter, r *http.Request) {
	var patch complaint.Patch
	if err := response.DecodeJSON(w, r, &patch); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}
	s.mutate(w, r, "Draft updated", func(f *complaint.Form) error {
		return f.UpdateData(patch)
	})
}

func (s *server) nextStep(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "Step updated", func(f *complaint.Form) error {
		f.Next()
		return nil
	})
}

func (s *server) prevStep(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "Step updated", func(f *complaint.Form) error {
		f.Prev()
		return nil
	})
}

func (s *server) resetDraft(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "Draft reset", func(f *complaint.Form) error {
		if f.State == complaint.StateSubmitting {
			return complaint.ErrSubmitInProgress
		}
		f.Reset()
		return nil
	})
}

// mutate loads a form under its lock, applies fn and saves the result.
func (s *server) mutate(w http.ResponseWriter, r *http.Request, message string, fn func(*complaint.Form) error) {
	id := r.PathValue("id")
	unlock := s.locks.Lock(id)
	defer unlock()

	f, err := s.drafts.Get(r.Context(), id)
	if err != nil {
		s.draftError(w, r, err)
		return
	}
	if err := fn(f); err != nil {
		s.draftError(w, r, err)
		return
	}
	if err := s.drafts.Save(r.Context(), f); err != nil {
		s.draftError(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, message, f.View())
}

// submitDraft sends the draft to the backend exactly once. The form is
// saved as submitting before the call so concurrent submits are refused.
func (s *server) submitDraft(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	traceID := middleware.GetTraceID(r)

	unlock := s.locks.Lock(id)
	f, err := s.drafts.Get(r.Context(), id)
	if err != nil {
		unlock()
		s.draftError(w, r, err)
		return
	}
	if err := f.BeginSubmit(); err != nil {
		if errors.Is(err, complaint.ErrIncomplete) {
			if err := s.drafts.Save(r.Context(), f); err != nil {
				middleware.LogError(traceID, "Failed to save incomplete draft", err)
			}
			unlock()
			middleware.RecordSubmission("invalid")
			response.JSON(w, http.StatusUnprocessableEntity, response.APIResponse{
				Status:  "error",
				Message: complaint.IncompleteMessage,
				Data:    f.View(),
			})
			return
		}
		unlock()
		s.draftError(w, r, err)
		return
	}
	if err := s.drafts.Save(r.Context(), f); err != nil {
		unlock()
		s.draftError(w, r, err)
		return
	}
	unlock()

	draft := f.Draft
	result, submitErr := s.submitter.SubmitComplaint(r.Context(), draft)

	// The outcome is recorded even if the citizen has gone away.
	saveCtx := context.WithoutCancel(r.Context())
	unlock = s.locks.Lock(id)
	defer unlock()

	if submitErr != nil {
		f.FailSubmit()
		if err := s.drafts.Save(saveCtx, f); err != nil {
			middleware.LogError(traceID, "Failed to save failed submission", err)
		}
		middleware.RecordSubmission("failed")
		middleware.LogError(traceID, "Complaint submission failed", submitErr)
		response.JSON(w, http.StatusBadGateway, response.APIResponse{
			Status:  "error",
			Message: complaint.SubmitFailedMessage,
			Data:    f.View(),
		})
		return
	}

	f.CompleteSubmit(result)
	if err := s.drafts.Save(saveCtx, f); err != nil {
		middleware.LogError(traceID, "Failed to save submitted draft", err)
	}
	middleware.RecordSubmission("success")
	middleware.LogInfo(traceID, "Complaint submitted",
		zap.String("reference_id", result.ReferenceID),
		zap.String("category", result.Category),
		zap.String("priority_band", string(result.Band)),
	)

	event := queue.ComplaintSubmitted{
		ReferenceID:   result.ReferenceID,
		Category:      result.Category,
		Area:          draft.Area,
		ServiceType:   string(draft.ServiceType),
		Urgency:       string(draft.Urgency),
		PriorityScore: result.PriorityScore,
		PriorityBand:  string(result.Band),
		Vulnerable:    draft.Vulnerability.Any(),
		Scheme:        result.SuggestedScheme,
		SubmittedAt:   time.Now().UTC(),
		TraceID:       traceID,
	}
	if err := s.events.Publish(saveCtx, queue.RoutingComplaintSubmitted, event); err != nil {
		middleware.LogWarn(traceID, "Complaint submitted but failed to publish event", err)
	}

	response.Success(w, http.StatusCreated, "Complaint submitted successfully", f.View())
}

func (s *server) draftError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, complaint.ErrNotFound):
		response.Error(w, http.StatusNotFound, "Draft not found", "")
	case errors.Is(err, complaint.ErrSubmitInProgress):
		response.Error(w, http.StatusConflict, "Submission already in progress", "")
	case errors.Is(err, complaint.ErrAlreadySubmitted):
		response.Error(w, http.StatusConflict, "Complaint already submitted", "")
	default:
		middleware.LogError(middleware.GetTraceID(r), "Draft store failure", err)
		response.Error(w, http.StatusInternalServerError, "Failed to process draft", "")
	}
}
