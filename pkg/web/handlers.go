package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/japaniel/tutor/pkg/llm"
	"github.com/japaniel/tutor/pkg/web/response"
)

// reviewApology is the overall feedback sent when no review could be produced.
const reviewApology = "I apologize, but I'm having trouble generating a review at the moment."

// StartDialogueRequest selects a scenario.
type StartDialogueRequest struct {
	Scenario string `json:"scenario"`
}

// StartDialogueResponse opens a dialogue.
type StartDialogueResponse struct {
	Scenario
	Name      string `json:"scenario"`
	SessionID string `json:"session_id"`
}

// TurnJSON is one line of dialogue history.
type TurnJSON struct {
	Role    string `json:"role" validate:"required,oneof=tutor user"`
	Content string `json:"content"`
}

// RespondRequest carries the learner's line.
type RespondRequest struct {
	Response            string     `json:"response" validate:"required"`
	History             []TurnJSON `json:"history" validate:"dive"`
	Scenario            string     `json:"scenario"`
	IncludeTranslations *bool      `json:"include_translations"`
}

// ReviewRequest carries a finished dialogue.
type ReviewRequest struct {
	History  []TurnJSON `json:"history" validate:"dive"`
	Scenario string     `json:"scenario"`
}

func (s *Server) decode(r *http.Request, v any) error {
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(v); err != nil {
			return errors.New("invalid request body")
		}
	}
	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("Field: %s, Tag: %s", fe.Namespace(), fe.Tag())
		}
		return err
	}
	return nil
}

func turns(history []TurnJSON) []llm.Turn {
	out := make([]llm.Turn, len(history))
	for i, t := range history {
		out[i] = llm.Turn{Role: t.Role, Content: t.Content}
	}
	return out
}

func (s *Server) handleStartDialogue(w http.ResponseWriter, r *http.Request) {
	var req StartDialogueRequest
	if err := s.decode(r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}
	name, sc := lookupScenario(req.Scenario)
	response.OK(w, StartDialogueResponse{Scenario: sc, Name: name, SessionID: uuid.NewString()})
}

func (s *Server) handleRespond(w http.ResponseWriter, r *http.Request) {
	var req RespondRequest
	if err := s.decode(r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}
	name, _ := lookupScenario(req.Scenario)

	line, err := s.tutor.NextLine(r.Context(), name, req.Response, turns(req.History))
	if err != nil {
		s.logger.Error("dialogue response failed", slog.String("scenario", name), slog.Any("error", err))
		line = llm.FallbackLine
	}
	if req.IncludeTranslations != nil && !*req.IncludeTranslations {
		line.Pinyin = ""
		line.English = ""
	}
	response.OK(w, line)
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if err := s.decode(r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}
	name, _ := lookupScenario(req.Scenario)

	review, err := s.tutor.ReviewConversation(r.Context(), name, turns(req.History))
	if err != nil {
		s.logger.Error("conversation review failed", slog.String("scenario", name), slog.Any("error", err))
		review = llm.Review{OverallFeedback: reviewApology}
	}
	if review.GrammarFeedback == nil {
		review.GrammarFeedback = []llm.GrammarFeedback{}
	}
	if review.VocabularyReview == nil {
		review.VocabularyReview = []llm.VocabItem{}
	}
	response.OK(w, review)
}
