package handlers

import (
	"net/http"

	"github.com/Dosada05/minicup/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
}

func NewTournamentHandler(tournamentService services.TournamentService) *TournamentHandler {
	return &TournamentHandler{tournamentService: tournamentService}
}

func (h *TournamentHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.tournamentService.Status(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, status, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.tournamentService.Overview(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, overview, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) GenerateGroupMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := h.tournamentService.GenerateGroupMatches(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"success": true,
		"matches": matches,
	}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) GenerateSemiFinals(w http.ResponseWriter, r *http.Request) {
	result, err := h.tournamentService.GenerateSemiFinals(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	status := http.StatusCreated
	if !result.Success {
		// Business rule rejection, not a server fault.
		status = http.StatusBadRequest
	}
	if err := writeJSON(w, status, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) GenerateFinal(w http.ResponseWriter, r *http.Request) {
	result, err := h.tournamentService.GenerateFinal(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	status := http.StatusCreated
	if !result.Success {
		status = http.StatusBadRequest
	}
	if err := writeJSON(w, status, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.tournamentService.Reset(r.Context()); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"success": true,
		"message": "Tournament has been reset successfully",
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
