package routes

import (
	"github.com/Dosada05/minicup/handlers"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func SetupRoutes(
	router *chi.Mux,
	playerHandler *handlers.PlayerHandler,
	matchHandler *handlers.MatchHandler,
	tournamentHandler *handlers.TournamentHandler,
	webSocketHandler *handlers.WebSocketHandler,
	allowedOrigins []string,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Route("/players", func(r chi.Router) {
		r.Post("/", playerHandler.Register)
		r.Get("/", playerHandler.List)
		r.Get("/{playerID}", playerHandler.GetByID)
		r.Put("/{playerID}/avatar", playerHandler.UploadAvatar)
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/", matchHandler.List)
		r.Post("/", matchHandler.Create)
		r.Get("/{matchID}", matchHandler.GetByID)
		r.Post("/{matchID}/score", matchHandler.RecordScore)
	})

	router.Route("/tournament", func(r chi.Router) {
		r.Get("/status", tournamentHandler.Status)
		r.Get("/overview", tournamentHandler.Overview)
		r.Post("/generate/group", tournamentHandler.GenerateGroupMatches)
		r.Post("/generate/semifinals", tournamentHandler.GenerateSemiFinals)
		r.Post("/generate/final", tournamentHandler.GenerateFinal)
		r.Post("/reset", tournamentHandler.Reset)
	})

	router.Get("/ws", webSocketHandler.ServeWs)
}
