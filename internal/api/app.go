package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/mkaneda/liveroom/internal/config"
	"github.com/mkaneda/liveroom/internal/database"
	"github.com/mkaneda/liveroom/internal/room"
	"github.com/mkaneda/liveroom/internal/stats"
)

type LiveRoomApp struct {
	log        *log.Logger
	db         database.LiveRoomRepository
	rooms      *room.RoomService
	srv        *http.Server
	stats      stats.StatsProvider
	signingKey []byte
}

func NewLiveRoomApp(mux *http.ServeMux, logger *log.Logger, rooms *room.RoomService, db database.LiveRoomRepository, statsProvider stats.StatsProvider, cfg *config.Config) *LiveRoomApp {
	s := &LiveRoomApp{
		log:        logger,
		db:         db,
		rooms:      rooms,
		stats:      statsProvider,
		signingKey: cfg.SigningKey,
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)
	mux.HandleFunc("POST /api/user/create", s.userCreate)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("GET /api/user/me", s.authMiddleware(s.userMe))
	mux.HandleFunc("POST /api/user/update", s.authMiddleware(s.userUpdate))
	mux.HandleFunc("POST /api/room/create", s.authMiddleware(s.roomCreate))
	mux.HandleFunc("POST /api/room/list", s.roomList)
	mux.HandleFunc("POST /api/room/join", s.authMiddleware(s.roomJoin))
	mux.HandleFunc("POST /api/room/wait", s.authMiddleware(s.roomWait))
	mux.HandleFunc("POST /api/room/start", s.authMiddleware(s.roomStart))
	mux.HandleFunc("POST /api/room/end", s.authMiddleware(s.roomEnd))
	mux.HandleFunc("POST /api/room/result", s.roomResult)
	mux.HandleFunc("POST /api/room/leave", s.authMiddleware(s.roomLeave))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept", "Authorization"}),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.srv = srv
	return s
}

func (s *LiveRoomApp) Start() error {
	s.log.Printf("starting server on %s\n", s.srv.Addr)
	return s.srv.ListenAndServe()
}

func (s *LiveRoomApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
