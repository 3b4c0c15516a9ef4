package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/cbodonnell/angelreaper/pkg/api/middleware"
	"github.com/cbodonnell/angelreaper/pkg/game"
	"github.com/cbodonnell/angelreaper/pkg/game/history"
	"github.com/cbodonnell/angelreaper/pkg/game/types"
	"github.com/cbodonnell/angelreaper/pkg/log"
	"github.com/cbodonnell/angelreaper/pkg/matches"
	"github.com/cbodonnell/angelreaper/pkg/messages"
	"github.com/cbodonnell/angelreaper/pkg/repositories"
	"github.com/cbodonnell/angelreaper/pkg/repositories/models"
	"github.com/cbodonnell/angelreaper/pkg/version"
	"github.com/gorilla/mux"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// Matches is the match manager surface the handlers need.
type Matches interface {
	CreateMatch(ctx context.Context, callerID string, seeds []types.PlayerSeed) (*models.Match, error)
	View(ctx context.Context, matchID string, viewerID string) (*models.Match, error)
	History(ctx context.Context, matchID string) ([]history.Line, error)
	IsLegal(ctx context.Context, callerID string, matchID string, action game.Action) (bool, error)
	Submit(ctx context.Context, callerID string, matchID string, action game.Action) (*models.Match, error)
	DeleteMatch(ctx context.Context, callerID string, matchID string) error
}

var _ Matches = &matches.MatchManager{}

// FeedServer serves a match subscription over a websocket.
type FeedServer interface {
	ServeFeed(w http.ResponseWriter, r *http.Request, userID string, matchID string)
}

type MatchResponse struct {
	ID        string            `json:"id"`
	Version   int64             `json:"version"`
	Actors    []string          `json:"actors"`
	State     *types.MatchState `json:"state"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

type CreateMatchRequestBody struct {
	Players []types.PlayerSeed `json:"players"`
}

type LegalResponseBody struct {
	Legal bool `json:"legal"`
}

type ErrorResponseBody struct {
	Error     string             `json:"error"`
	Rejection game.RejectionKind `json:"rejection,omitempty"`
}

func HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"version": version.Get(),
		})
	}
}

func HandleCreateMatch(m Matches) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			log.Error("failed to get user from context")
			http.Error(w, "Failed to get user from context", http.StatusInternalServerError)
			return
		}

		body := &CreateMatchRequestBody{}
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(body); err != nil {
			http.Error(w, "Failed to decode request body", http.StatusBadRequest)
			return
		}
		for i := range body.Players {
			if body.Players[i].ID == claims.UID && body.Players[i].Name == "" {
				body.Players[i].Name = claims.Name
			}
		}

		match, err := m.CreateMatch(r.Context(), claims.UID, body.Players)
		if err != nil {
			writeError(w, err)
			return
		}

		match.State = game.ViewFor(match.State, claims.UID)
		writeJSON(w, http.StatusCreated, newMatchResponse(match))
	}
}

func HandleGetMatch(m Matches) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			log.Error("failed to get user from context")
			http.Error(w, "Failed to get user from context", http.StatusInternalServerError)
			return
		}

		match, err := m.View(r.Context(), mux.Vars(r)["matchID"], claims.UID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newMatchResponse(match))
	}
}

func HandleDeleteMatch(m Matches) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			log.Error("failed to get user from context")
			http.Error(w, "Failed to get user from context", http.StatusInternalServerError)
			return
		}

		if err := m.DeleteMatch(r.Context(), claims.UID, mux.Vars(r)["matchID"]); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleSubmitAction(m Matches) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			log.Error("failed to get user from context")
			http.Error(w, "Failed to get user from context", http.StatusInternalServerError)
			return
		}

		action, err := readAction(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, &ErrorResponseBody{Error: err.Error()})
			return
		}

		matchID := mux.Vars(r)["matchID"]
		match, err := m.Submit(r.Context(), claims.UID, matchID, action)
		if err != nil {
			writeError(w, err)
			return
		}

		match.State = game.ViewFor(match.State, claims.UID)
		writeJSON(w, http.StatusOK, newMatchResponse(match))
	}
}

func HandleIsLegal(m Matches) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			log.Error("failed to get user from context")
			http.Error(w, "Failed to get user from context", http.StatusInternalServerError)
			return
		}

		action, err := readAction(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, &ErrorResponseBody{Error: err.Error()})
			return
		}

		legal, err := m.IsLegal(r.Context(), claims.UID, mux.Vars(r)["matchID"], action)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, &LegalResponseBody{Legal: legal})
	}
}

func HandleHistory(m Matches) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lines, err := m.History(r.Context(), mux.Vars(r)["matchID"])
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, lines)
	}
}

func HandleFeed(m Matches, feed FeedServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			log.Error("failed to get user from context")
			http.Error(w, "Failed to get user from context", http.StatusInternalServerError)
			return
		}

		matchID := mux.Vars(r)["matchID"]
		if _, err := m.View(r.Context(), matchID, claims.UID); err != nil {
			writeError(w, err)
			return
		}
		feed.ServeFeed(w, r, claims.UID, matchID)
	}
}

func readAction(r *http.Request) (game.Action, error) {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	return messages.DecodeAction(b)
}

func newMatchResponse(match *models.Match) *MatchResponse {
	return &MatchResponse{
		ID:        match.ID,
		Version:   match.Version,
		Actors:    game.CurrentActors(match.State),
		State:     match.State,
		CreatedAt: match.CreatedAt,
		UpdatedAt: match.UpdatedAt,
	}
}

// writeError maps domain errors onto status codes.
func writeError(w http.ResponseWriter, err error) {
	var rejection *game.Rejection
	switch {
	case errors.As(err, &rejection):
		writeJSON(w, http.StatusConflict, &ErrorResponseBody{Error: rejection.Message, Rejection: rejection.Kind})
	case errors.Is(err, matches.ErrPermissionDenied):
		writeJSON(w, http.StatusForbidden, &ErrorResponseBody{Error: err.Error()})
	case errors.Is(err, matches.ErrRateLimited):
		writeJSON(w, http.StatusTooManyRequests, &ErrorResponseBody{Error: err.Error()})
	case errors.Is(err, matches.ErrMatchInProgress):
		writeJSON(w, http.StatusConflict, &ErrorResponseBody{Error: err.Error()})
	case repositories.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, &ErrorResponseBody{Error: "match not found"})
	case repositories.IsConflict(err):
		writeJSON(w, http.StatusConflict, &ErrorResponseBody{Error: "the match changed, try again"})
	default:
		log.Error("request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, &ErrorResponseBody{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response: %v", err)
	}
}
