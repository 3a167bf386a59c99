package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"fortuneone-chat-backend/internal/bizconfig"
	"fortuneone-chat-backend/internal/chat"
	"fortuneone-chat-backend/internal/config"
	"fortuneone-chat-backend/internal/db"
	"fortuneone-chat-backend/internal/store"
	"fortuneone-chat-backend/internal/types"
)

type Server struct {
	router     *chi.Mux
	cfg        config.Config
	chat       *chat.Service
	businesses *bizconfig.Loader
	sessions   *store.SessionRegistry
	database   *db.DB
	upgrader   websocket.Upgrader
}

// New assembles the HTTP surface around an already-wired turn pipeline.
// database may be nil.
func New(cfg config.Config, chatSvc *chat.Service, businesses *bizconfig.Loader, sessions *store.SessionRegistry, database *db.DB) *Server {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{cfg.AllowedOrigin},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With"},
		MaxAge:         300,
	}))

	s := &Server{
		router:     r,
		cfg:        cfg,
		chat:       chatSvc,
		businesses: businesses,
		sessions:   sessions,
		database:   database,
		upgrader:   websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/ws", s.handleWS)
}

func (s *Server) Router() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := "ok"
	if s.database != nil {
		if err := s.database.HealthCheck(); err != nil {
			status = "degraded"
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"sessions":  s.sessions.Count(),
	})
}

// handleWS owns one session: handshake, config lookup, then a strict
// request/response loop. The connection is written to only from this
// goroutine, so outbound messages for a session are serialized and ordered.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	businessID := r.URL.Query().Get("business_id")
	if businessID == "" {
		businessID = s.cfg.DefaultBusinessID
	}
	sessionID := "session-" + uuid.NewString()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Str("component", "server").Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	log.Info().
		Str("component", "server").
		Str("business_id", businessID).
		Str("session_id", sessionID).
		Msg("websocket connected")

	bizCfg, err := s.businesses.Load(businessID)
	if err != nil {
		// Fatal for the session: one terminal message, then close. No
		// inbound message is ever processed on this connection.
		log.Warn().
			Str("component", "server").
			Str("business_id", businessID).
			Err(err).
			Msg("business config lookup failed, closing session")
		_ = conn.WriteJSON(&types.ServerTextOutput{
			Type:     types.MessageTypeTextOutput,
			Content:  "Business configuration not found.",
			Language: "en",
			Error:    types.ErrBusinessNotFound,
		})
		return
	}

	s.sessions.Add(sessionID, businessID)
	defer s.sessions.Remove(sessionID)

	welcome := &types.ServerTextOutput{
		Type:     types.MessageTypeTextOutput,
		Content:  "Welcome to " + bizCfg.Name + "! How can I help you today?",
		Language: "en",
	}
	if err := conn.WriteJSON(welcome); err != nil {
		return
	}

	ctx := r.Context()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Info().
				Str("component", "server").
				Str("session_id", sessionID).
				Msg("websocket disconnected")
			return
		}

		var in types.ClientTextInput
		if err := json.Unmarshal(data, &in); err != nil {
			// Malformed inbound payloads become a per-turn error message;
			// the session stays open.
			log.Warn().
				Str("component", "server").
				Str("session_id", sessionID).
				Err(err).
				Msg("malformed inbound payload")
			if err := conn.WriteJSON(&types.ServerTextOutput{
				Type:     types.MessageTypeTextOutput,
				Content:  "Sorry, I encountered an error processing your message.",
				Language: "en",
				Error:    types.ErrProcessing,
			}); err != nil {
				return
			}
			continue
		}
		if in.Type != types.MessageTypeTextInput {
			continue
		}

		out := s.chat.HandleTurn(ctx, chat.Turn{
			SessionID:  sessionID,
			BusinessID: businessID,
			Content:    in.Content,
			Language:   in.Language,
		}, bizCfg)
		if err := conn.WriteJSON(out); err != nil {
			log.Warn().
				Str("component", "server").
				Str("session_id", sessionID).
				Err(err).
				Msg("websocket write failed")
			return
		}
	}
}
