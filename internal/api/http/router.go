package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"bookshare-backend/internal/ratelimit"
	"bookshare-backend/internal/security"
	"bookshare-backend/internal/service"
)

// RouterConfig carries what the gateway needs from the server wiring.
type RouterConfig struct {
	TokenManager   security.TokenManager
	Limiter        *ratelimit.Limiter
	Transactions   service.TransactionService
	Notifications  service.NotificationService
	AllowedOrigins []string
}

// NewRouter builds the JSON gateway in front of the same services the gRPC server uses.
func NewRouter(cfg RouterConfig) http.Handler {
	txHandler := NewTransactionHandler(cfg.Transactions)
	noteHandler := NewNotificationHandler(cfg.Notifications)

	r := mux.NewRouter()
	r.Use(RequestLogging)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/v1").Subrouter()
	api.Use(Authentication(cfg.TokenManager))

	api.HandleFunc("/transactions", txHandler.CreateRequest).Methods(http.MethodPost)
	api.HandleFunc("/transactions", txHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/transactions/{id}", txHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/transactions/{id}/approve", txHandler.Approve).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{id}/reject", txHandler.Reject).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{id}/cancel", txHandler.Cancel).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{id}/otp", txHandler.RegenerateOTP).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{id}/payment", txHandler.MarkPayment).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{id}/rating", txHandler.Rate).Methods(http.MethodPost)

	limited := OTPRateLimit(cfg.Limiter)
	api.Handle("/transactions/{id}/handover", limited(http.HandlerFunc(txHandler.ConfirmHandover))).Methods(http.MethodPost)
	api.Handle("/transactions/{id}/return", limited(http.HandlerFunc(txHandler.ConfirmReturn))).Methods(http.MethodPost)

	api.HandleFunc("/notifications", noteHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/notifications/{id}/read", noteHandler.MarkRead).Methods(http.MethodPost)

	return CORS(cfg.AllowedOrigins)(r)
}
