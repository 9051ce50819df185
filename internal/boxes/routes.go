package boxes

import (
	"net/http"

	"github.com/Bookineo/BK-Backend/internal/auth"
	"github.com/Bookineo/BK-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()
	sessionFetcher := auth.SessionInfo{}

	// Public reads
	r.Get("/", ListBoxesHandler)
	r.Get("/search", SearchBoxesHandler)
	r.Get("/nearby", NearbyBoxesHandler)
	r.Post("/usernames", UsernamesHandler)
	r.Get("/{id}", GetBoxHandler)
	r.Get("/{id}/visits/count", VisitCountHandler)
	r.Get("/{id}/rating", AverageRatingHandler)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessionFetcher))
		r.Get("/mine", MyBoxesHandler)
		r.Post("/", CreateBoxHandler)
		r.Put("/{id}", UpdateBoxHandler)
		r.Delete("/{id}", DeleteBoxHandler)
		r.Post("/{id}/visits", CreateVisitHandler)
		r.Post("/{id}/favorite", AddFavoriteHandler)
		r.Delete("/{id}/favorite", RemoveFavoriteHandler)
		r.Get("/favorites", ListFavoritesHandler)
		r.Get("/visited", MyVisitsHandler)
	})

	return r
}
