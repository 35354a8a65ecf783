package api

import (
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler, corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling
	r.Use(cors(corsOrigins))

	r.Get("/", apiHandler.RootHandler)
	r.Get("/health", apiHandler.HealthHandler)

	r.Route("/chats", func(r chi.Router) {
		r.Post("/", apiHandler.CreateChatHandler)
		r.Get("/", apiHandler.ListChatsHandler)
		r.Route("/{chatID}", func(r chi.Router) {
			r.Get("/", apiHandler.GetChatHandler)
			r.Patch("/", apiHandler.UpdateChatHandler)
			r.Delete("/", apiHandler.DeleteChatHandler)
			r.Get("/documents", apiHandler.ListDocumentsHandler)
			r.Delete("/documents/{documentID}", apiHandler.DeleteDocumentHandler)
		})
	})

	r.Post("/upload", apiHandler.UploadHandler)
	r.Post("/upload/text", apiHandler.UploadTextHandler)
	r.Post("/ask", apiHandler.AskHandler)
	r.Post("/search", apiHandler.SearchHandler)

	r.Route("/templates", func(r chi.Router) {
		r.Get("/", apiHandler.ListTemplatesHandler)
		r.Get("/category/{category}", apiHandler.TemplatesByCategoryHandler)
		r.Get("/{templateID}", apiHandler.GetTemplateHandler)
	})

	r.Get("/user/status", apiHandler.UserStatusHandler)

	r.Route("/payment", func(r chi.Router) {
		r.Post("/create-order", apiHandler.CreateOrderHandler)
		r.Post("/verify", apiHandler.VerifyPaymentHandler)
		r.Get("/history", apiHandler.PaymentHistoryHandler)
	})

	return r
}

// cors answers preflight requests and sets the allow headers for the
// configured origins. "*" allows any origin.
func cors(origins []string) func(http.Handler) http.Handler {
	wildcard := slices.Contains(origins, "*")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (wildcard || slices.Contains(origins, origin)) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Add("Vary", "Origin")
				if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
					h.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
					h.Set("Access-Control-Allow-Headers", strings.Join([]string{"Origin", "Content-Type", "Accept", "Authorization"}, ", "))
					h.Set("Access-Control-Max-Age", "86400")
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
