package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/jojospausch-web/redact-clinical-german/internal/config"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(container *config.Container) (http.Handler, *AnonymizeHandler) {
	router := mux.NewRouter()

	// API prefix
	api := router.PathPrefix("/api/v1").Subrouter()

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"redact-clinical-german"}`))
	}).Methods("GET")

	// Initialize handlers
	anonymizeHandler := NewAnonymizeHandler(
		container.GetAnonymizeService(),
		container.GetConfig(),
		container.GetTemplate(),
		container.GetLogger(),
	)

	api.HandleFunc("/anonymize", anonymizeHandler.Anonymize).Methods("POST")
	api.HandleFunc("/anonymize/preview", anonymizeHandler.Preview).Methods("POST")
	api.HandleFunc("/anonymize/batch", anonymizeHandler.AnonymizeBatch).Methods("POST")
	api.HandleFunc("/anonymize/batch/{jobId}/{filename}", anonymizeHandler.DownloadBatchFile).Methods("GET")

	// Configure CORS
	c := cors.New(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://localhost:4173",
			"http://localhost:3000",
		},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
		},
		ExposedHeaders: []string{
			"Content-Disposition",
			"X-Anonymization-Stats",
		},
		MaxAge: 300, // Maximum value not ignored by any of major browsers
	})

	return c.Handler(router), anonymizeHandler
}
