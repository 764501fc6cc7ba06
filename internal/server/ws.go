package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/askumar/violincoach/internal/app"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// FeedbackHandler broadcasts real-time practice feedback via WebSocket
// and accepts control commands from clients.
type FeedbackHandler struct {
	app     *app.App
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
}

// NewFeedbackHandler creates a new FeedbackHandler with the given app.
func NewFeedbackHandler(a *app.App) *FeedbackHandler {
	h := &FeedbackHandler{
		app:     a,
		clients: make(map[*websocket.Conn]bool),
	}
	go h.broadcast()
	return h
}

// command is a control message sent by a client over the feedback socket.
type command struct {
	Action string `json:"action"`
	Name   string `json:"name,omitempty"`
	Piece  string `json:"piece,omitempty"`
}

// commandResult is the acknowledgement sent back for a command.
type commandResult struct {
	Kind     string `json:"kind"`
	Action   string `json:"action"`
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
	Captured bool   `json:"captured,omitempty"`
	ID       string `json:"id,omitempty"`
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *FeedbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var cmd command
		if err := json.Unmarshal(msg, &cmd); err != nil || cmd.Action == "" {
			continue
		}

		result := h.dispatch(cmd)
		h.mu.Lock()
		err = conn.WriteJSON(result)
		h.mu.Unlock()
		if err != nil {
			break
		}
	}
}

// dispatch executes a client command against the app.
func (h *FeedbackHandler) dispatch(cmd command) commandResult {
	result := commandResult{Kind: "command_result", Action: cmd.Action, OK: true}

	switch cmd.Action {
	case "capture":
		captured, err := h.app.RequestCapture(cmd.Name)
		result.Captured = captured
		if err != nil {
			result.OK = false
			result.Error = err.Error()
		}
	case "reset_calibration":
		h.app.ResetCalibration()
	case "reset_pattern":
		h.app.ResetPattern()
	case "start_practice":
		id, err := h.app.StartPractice(cmd.Piece)
		result.ID = id
		if err != nil {
			result.OK = false
			result.Error = err.Error()
		}
	case "end_practice":
		if err := h.app.EndPractice(); err != nil {
			result.OK = false
			result.Error = err.Error()
		}
	case "enable":
		h.app.SetEnabled(true)
	case "disable":
		h.app.SetEnabled(false)
	default:
		result.OK = false
		result.Error = "unknown action"
	}

	return result
}

// broadcast sends the latest feedback record to all connected clients.
func (h *FeedbackHandler) broadcast() {
	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	for range ticker.C {
		h.mu.RLock()
		if len(h.clients) == 0 {
			h.mu.RUnlock()
			continue
		}
		h.mu.RUnlock()

		fb := h.app.Snapshot()
		msg, err := json.Marshal(map[string]any{
			"kind":     "feedback",
			"feedback": fb,
		})
		if err != nil {
			continue
		}

		h.mu.RLock()
		for conn := range h.clients {
			conn.WriteMessage(websocket.TextMessage, msg)
		}
		h.mu.RUnlock()
	}
}
