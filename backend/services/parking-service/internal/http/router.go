package httpserver

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// RouterDeps collects handler dependencies. Nil Metrics or Occupancy disable those routes.
type RouterDeps struct {
	Login  http.HandlerFunc
	Health http.HandlerFunc

	RegisterLot http.HandlerFunc
	ListLots    http.HandlerFunc
	GetLot      http.HandlerFunc
	LotStatus   http.HandlerFunc
	LotVehicles http.HandlerFunc

	RegisterVehicle http.HandlerFunc
	ListVehicles    http.HandlerFunc
	GetVehicle      http.HandlerFunc
	CheckIn         http.HandlerFunc
	CheckOut        http.HandlerFunc

	ActiveSession http.HandlerFunc

	Metrics   http.Handler
	Occupancy http.HandlerFunc
}

// NewRouter wires HTTP routes. Everything under /api/v1 except login goes through authMiddleware.
func NewRouter(deps RouterDeps, authMiddleware func(http.Handler) http.Handler) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", deps.Health).Methods(http.MethodGet)
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics).Methods(http.MethodGet)
	}
	if deps.Occupancy != nil {
		r.HandleFunc("/ws/occupancy", deps.Occupancy).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/auth/login", deps.Login).Methods(http.MethodPost)

	protected := api.NewRoute().Subrouter()
	protected.Use(mux.MiddlewareFunc(authMiddleware))

	protected.HandleFunc("/parking-lots", deps.RegisterLot).Methods(http.MethodPost)
	protected.HandleFunc("/parking-lots", deps.ListLots).Methods(http.MethodGet)
	protected.HandleFunc("/parking-lots/{lotId}", deps.GetLot).Methods(http.MethodGet)
	protected.HandleFunc("/parking-lots/{lotId}/status", deps.LotStatus).Methods(http.MethodGet)
	protected.HandleFunc("/parking-lots/{lotId}/vehicles", deps.LotVehicles).Methods(http.MethodGet)

	// check-in is registered before the {licensePlate} routes so it is not taken for a plate
	protected.HandleFunc("/vehicles/check-in", deps.CheckIn).Methods(http.MethodPost)
	protected.HandleFunc("/vehicles", deps.RegisterVehicle).Methods(http.MethodPost)
	protected.HandleFunc("/vehicles", deps.ListVehicles).Methods(http.MethodGet)
	protected.HandleFunc("/vehicles/{licensePlate}", deps.GetVehicle).Methods(http.MethodGet)
	protected.HandleFunc("/vehicles/{licensePlate}/check-out", deps.CheckOut).Methods(http.MethodPost)

	protected.HandleFunc("/sessions/{licensePlate}", deps.ActiveSession).Methods(http.MethodGet)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)
	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(false))(cors(r))
}
