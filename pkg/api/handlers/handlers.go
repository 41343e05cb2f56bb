package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/cbodonnell/snake/pkg/log"
	"github.com/cbodonnell/snake/pkg/messages"
	"github.com/cbodonnell/snake/pkg/queue"
	"github.com/cbodonnell/snake/pkg/state"
	"github.com/cbodonnell/snake/pkg/version"
)

// APIClientID is the sender ID of messages queued through the HTTP API.
const APIClientID = "api"

func HandleGetState(stateManager state.StateManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := stateManager.Get(r.Context())
		if err != nil {
			log.Warn("failed to get game state: %v", err)
			http.Error(w, "Game state is not available", http.StatusServiceUnavailable)
			return
		}

		update := messages.ServerGameUpdateFromState(snapshot.Timestamp, snapshot.GameState, snapshot.Direction)
		writeJSON(w, http.StatusOK, update)
	}
}

func HandleEndGame(messageQueue queue.Queue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msg := &messages.Message{
			ClientID: APIClientID,
			Type:     messages.MessageTypeClientEndGame,
		}
		if err := messageQueue.Enqueue(msg); err != nil {
			log.Error("failed to enqueue end game: %v", err)
			http.Error(w, "Failed to end game", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusAccepted)
	}
}

func HandleVersion() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"version": version.Get()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response: %v", err)
	}
}
