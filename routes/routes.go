package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/clasharena/esp-manager/handlers"
)

func SetupRoutes(
	router *chi.Mux,
	lobbyHandler *handlers.LobbyHandler,
	exportHandler *handlers.ExportHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	router.Route("/lobbies", func(r chi.Router) {
		r.Post("/", lobbyHandler.CreateHandler)
		r.Get("/", lobbyHandler.ListHandler)

		// "current" раньше {lobbyID}, иначе chi примет его за id.
		r.Get("/current", lobbyHandler.GetCurrentHandler)
		r.Put("/current", lobbyHandler.SelectCurrentHandler)

		r.Route("/{lobbyID}", func(r chi.Router) {
			r.Get("/", lobbyHandler.GetByIDHandler)
			r.Delete("/", lobbyHandler.DeleteHandler)

			r.Patch("/teams/{teamID}", lobbyHandler.RenameTeamHandler)
			r.Post("/matches", lobbyHandler.RecordMatchHandler)
			r.Get("/standings", lobbyHandler.StandingsHandler)

			r.Route("/export", func(r chi.Router) {
				r.Get("/csv", exportHandler.CSVHandler)
				r.Get("/xlsx", exportHandler.WorkbookHandler)
				r.Get("/card", exportHandler.CardHandler)
				r.Post("/publish", exportHandler.PublishHandler)
			})
		})
	})

	router.Get("/ws/lobbies/{lobbyID}", webSocketHandler.ServeWS)
}
