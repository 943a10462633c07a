package handlers

import (
	"net/http"

	"blogging-platform/config"
	"blogging-platform/middleware"
	"blogging-platform/utils"

	"github.com/gorilla/mux"
)

// NewRouter wires every route. Mutating routes go through AuthMiddleware.
func NewRouter(api *API, cfg config.ServerConfig) http.Handler {
	r := mux.NewRouter()
	auth := middleware.AuthMiddleware(api.tokens)
	protect := func(h http.HandlerFunc) http.Handler {
		return auth(h)
	}

	r.HandleFunc("/", api.IndexHandler).Methods(http.MethodGet)
	r.HandleFunc("/health", api.HealthHandler).Methods(http.MethodGet)

	r.HandleFunc("/signup", api.SignupHandler).Methods(http.MethodPost)
	r.HandleFunc("/login", api.LoginHandler).Methods(http.MethodPost)

	r.HandleFunc("/posts", api.ListPostsHandler).Methods(http.MethodGet)
	r.Handle("/posts", protect(api.CreatePostHandler)).Methods(http.MethodPost)
	r.HandleFunc("/posts/{id}", api.GetPostHandler).Methods(http.MethodGet)
	r.Handle("/posts/{id}", protect(api.UpdatePostHandler)).Methods(http.MethodPut)
	r.Handle("/posts/{id}", protect(api.DeletePostHandler)).Methods(http.MethodDelete)
	r.HandleFunc("/posts/{id}/comments", api.ListPostCommentsHandler).Methods(http.MethodGet)

	r.HandleFunc("/comments", api.ListCommentsHandler).Methods(http.MethodGet)
	r.Handle("/comments", protect(api.CreateCommentHandler)).Methods(http.MethodPost)
	r.HandleFunc("/comments/{id}", api.GetCommentHandler).Methods(http.MethodGet)
	r.Handle("/comments/{id}", protect(api.UpdateCommentHandler)).Methods(http.MethodPut)
	r.Handle("/comments/{id}", protect(api.DeleteCommentHandler)).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteError(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	var handler http.Handler = r
	handler = middleware.CORSMiddleware(cfg.AllowedOrigins)(handler)
	handler = middleware.RequestLogger(api.logger)(handler)
	if cfg.TrustProxy {
		handler = middleware.ProxyMiddleware(handler)
	}
	return handler
}
