package routes

import (
	"github.com/Yernar11/sportmate/handlers"
	"github.com/Yernar11/sportmate/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/Yernar11/sportmate/docs" // swagger docs registration
)

type Handlers struct {
	Auth        *handlers.AuthHandler
	Sport       *handlers.SportHandler
	Rating      *handlers.RatingHandler
	Event       *handlers.EventHandler
	Match       *handlers.MatchHandler
	Matchmaking *handlers.MatchmakingHandler
	Credit      *handlers.CreditHandler
}

func InitRoutes(h Handlers, auth *middleware.Authenticator) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.Handler())

	router.Post("/auth/register", h.Auth.Register)
	router.Post("/auth/login", h.Auth.Login)

	router.Route("/sports", func(r chi.Router) {
		r.Get("/", h.Sport.ListSports)
		r.Get("/{sportID}", h.Sport.GetSportByID)
	})

	router.Route("/users/{userID}", func(r chi.Router) {
		r.Get("/ratings", h.Rating.ListUserRatings)
		r.Get("/ratings/{sportID}", h.Rating.GetRating)
		r.Get("/restrictions", h.Credit.GetRestrictions)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Get("/credit-history", h.Credit.History)
			r.Post("/good-rating", h.Credit.RateUser)
		})
	})

	router.Route("/events", func(r chi.Router) {
		r.Get("/", h.Event.ListEvents)
		r.Get("/{eventID}", h.Event.GetEvent)
		r.Get("/{eventID}/participants", h.Event.ListParticipants)
		r.Get("/{eventID}/matches", h.Match.ListEventMatches)
		r.Get("/{eventID}/matchmaking", h.Matchmaking.ListMatches)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)

			r.Post("/", h.Event.CreateEvent)
			r.Post("/{eventID}/join", h.Event.JoinEvent)
			r.Delete("/{eventID}/join", h.Event.CancelParticipation)

			// Host lifecycle actions
			r.Post("/{eventID}/publish", h.Event.PublishEvent)
			r.Post("/{eventID}/start", h.Event.StartEvent)
			r.Post("/{eventID}/complete", h.Event.CompleteEvent)
			r.Post("/{eventID}/cancel", h.Event.CancelEvent)
			r.Post("/{eventID}/participants/{userID}/confirm", h.Event.ConfirmParticipant)
			r.Post("/{eventID}/participants/{userID}/check-in", h.Event.CheckInParticipant)
			r.Post("/{eventID}/participants/{userID}/no-show", h.Event.ReportNoShow)

			// Matchmaking control
			r.Post("/{eventID}/matchmaking/generate", h.Matchmaking.GenerateMatches)
			r.Post("/{eventID}/matchmaking/{matchID}/override", h.Matchmaking.OverridePlayer)
			r.Post("/{eventID}/matchmaking/{matchID}/lock", h.Matchmaking.ToggleLock)
			r.Post("/{eventID}/matchmaking/{matchID}/court", h.Matchmaking.AssignCourt)

			// Match results
			r.Post("/{eventID}/matches", h.Match.RecordMatch)
		})
	})

	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Get("/matches/{matchID}", h.Match.GetMatch)
		r.Post("/admin/users/{userID}/credit-adjustments", h.Credit.AdjustScore)
	})

	return router
}
