package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rentdesk-backend/internal/security"
	"rentdesk-backend/internal/service"
)

type RouterDeps struct {
	Bookings      service.BookingService
	Orders        service.OrderService
	Products      service.ProductService
	Organizations service.OrganizationService
	Tokens        security.TokenManager
}

// NewRouter builds the full HTTP surface. Everything under an organization
// path requires a bearer token scoped to that organization.
func NewRouter(deps RouterDeps) *mux.Router {
	r := mux.NewRouter()
	r.Use(LoggingMiddleware, MetricsMiddleware)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	orgHandler := NewOrganizationHandler(deps.Organizations)
	productHandler := NewProductHandler(deps.Products)
	orderHandler := NewOrderHandler(deps.Orders)
	bookingHandler := NewBookingHandler(deps.Bookings)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/orgs", orgHandler.Create).Methods(http.MethodPost)

	org := api.PathPrefix("/orgs/{orgID}").Subrouter()
	org.Use(AuthMiddleware(deps.Tokens))

	org.HandleFunc("", orgHandler.Get).Methods(http.MethodGet)

	org.HandleFunc("/products", productHandler.Create).Methods(http.MethodPost)
	org.HandleFunc("/products", productHandler.List).Methods(http.MethodGet)
	org.HandleFunc("/products/{id}", productHandler.Get).Methods(http.MethodGet)
	org.HandleFunc("/products/{id}", productHandler.Update).Methods(http.MethodPatch)
	org.HandleFunc("/products/{id}", productHandler.Deactivate).Methods(http.MethodDelete)
	org.HandleFunc("/products/{id}/conflicts", bookingHandler.Conflicts).Methods(http.MethodGet)

	org.HandleFunc("/orders", orderHandler.Create).Methods(http.MethodPost)
	org.HandleFunc("/orders", orderHandler.List).Methods(http.MethodGet)
	org.HandleFunc("/orders/{id}", orderHandler.Get).Methods(http.MethodGet)
	org.HandleFunc("/orders/{id}/cancel", orderHandler.Cancel).Methods(http.MethodPost)
	org.HandleFunc("/orders/{orderID}/bookings", bookingHandler.Create).Methods(http.MethodPost)

	org.HandleFunc("/bookings/{id}", bookingHandler.Get).Methods(http.MethodGet)
	org.HandleFunc("/bookings/{id}", bookingHandler.Update).Methods(http.MethodPatch)
	org.HandleFunc("/bookings/{id}/issue", bookingHandler.Issue).Methods(http.MethodPost)
	org.HandleFunc("/bookings/{id}/return", bookingHandler.Return).Methods(http.MethodPost)
	org.HandleFunc("/bookings/{id}/cancel", bookingHandler.Cancel).Methods(http.MethodPost)
	org.HandleFunc("/bookings/{id}/payments", bookingHandler.AddPayment).Methods(http.MethodPost)
	org.HandleFunc("/bookings/{id}/refund-preview", bookingHandler.RefundPreview).Methods(http.MethodGet)

	return r
}
