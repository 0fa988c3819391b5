package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", apiHandler.SignupHandler)
		r.Post("/login", apiHandler.LoginHandler)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		// Token-protected routes
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.JWTAuthMiddleware)

			r.Post("/create-agent", apiHandler.CreateAgentHandler)
			r.Get("/agents", apiHandler.ListAgentsHandler)
			r.Get("/phones", apiHandler.ListPhonesHandler)
			r.Get("/calls", apiHandler.ListCallsHandler)
			r.Get("/call", apiHandler.GetCallHandler)
			r.Delete("/delete-assistant", apiHandler.DeleteAssistantHandler)
			r.Post("/test-call", apiHandler.TestCallHandler)

			r.Get("/system_prompt", apiHandler.SystemPromptHandler)
			r.Get("/first_message", apiHandler.FirstMessageHandler)
		})
	})

	return r
}
