package handlers

import (
	"fmt"
	"net/http"

	"github.com/Dosada05/minicup/models"
	"github.com/Dosada05/minicup/repositories"
	"github.com/Dosada05/minicup/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(matchService services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

// List supports the query filters of the original admin UI:
// ?phase=GROUP|KNOCKOUT, ?status=completed|incomplete,
// ?type=semifinals|final (knockout shortcuts).
func (h *MatchHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := matchFilterFromQuery(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.matchService.List(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	// The final is a single match; callers expect an object, not a list.
	if r.URL.Query().Get("type") == "final" {
		if len(matches) == 0 {
			if err := writeJSON(w, http.StatusOK, nil, nil); err != nil {
				serverErrorResponse(w, r, err)
			}
			return
		}
		if err := writeJSON(w, http.StatusOK, matches[0], nil); err != nil {
			serverErrorResponse(w, r, err)
		}
		return
	}

	if err := writeJSON(w, http.StatusOK, matches, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetByID(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, match, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreateMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.Create(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, match, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) RecordScore(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Player1Score *int `json:"player1Score"`
		Player2Score *int `json:"player2Score"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Player1Score == nil || input.Player2Score == nil {
		badRequestResponse(w, r, fmt.Errorf("both player scores are required"))
		return
	}

	match, err := h.matchService.RecordScore(r.Context(), matchID, *input.Player1Score, *input.Player2Score)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, match, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func matchFilterFromQuery(r *http.Request) (repositories.MatchFilter, error) {
	var filter repositories.MatchFilter
	query := r.URL.Query()

	if phaseStr := query.Get("phase"); phaseStr != "" {
		phase := models.Phase(phaseStr)
		if phase != models.PhaseGroup && phase != models.PhaseKnockout {
			return filter, fmt.Errorf("invalid phase %q", phaseStr)
		}
		filter.Phase = &phase
	}

	if statusStr := query.Get("status"); statusStr != "" {
		switch statusStr {
		case "completed":
			completed := true
			filter.Completed = &completed
		case "incomplete":
			completed := false
			filter.Completed = &completed
		default:
			return filter, fmt.Errorf("invalid status %q", statusStr)
		}
	}

	if typeStr := query.Get("type"); typeStr != "" {
		knockout := models.PhaseKnockout
		filter.Phase = &knockout
		switch typeStr {
		case "semifinals":
			round := models.RoundSemiFinal
			filter.Round = &round
		case "final":
			round := models.RoundFinal
			filter.Round = &round
		default:
			return filter, fmt.Errorf("invalid type %q", typeStr)
		}
	}

	return filter, nil
}
