package httppresentation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application/account"
	appcart "github.com/Zhima-Mochi/minishop-storefront/internal/application/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/application/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/application/ledger"
	apppurchase "github.com/Zhima-Mochi/minishop-storefront/internal/application/purchase"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
)

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	tracerName           = "storefront.http"
	maxBodyBytes         = 1 << 20
)

// Services are the use cases served over HTTP.
type Services struct {
	Catalog  *catalog.Service
	Accounts *account.Service
	Carts    *appcart.Service
	BuyItem  *apppurchase.BuyItemUseCase
	Checkout *apppurchase.CheckoutUseCase
	History  *ledger.History
}

type Handler struct {
	svc Services
	log observability.Logger
	tel observability.Observability
}

func NewHandler(svc Services, logger observability.Logger, tel observability.Observability) *Handler {
	if logger == nil {
		logger = observability.LoggerOf(tel)
	}
	return &Handler{
		svc: svc,
		log: logger.With(observability.F("component", componentHTTPHandler)),
		tel: tel,
	}
}

// Router registers every route. Matched requests pass through
// Trace → request logger + HTTP metrics → access log → handler.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(
		h.withTrace,
		ObservabilityMiddleware(h.log, func(r *http.Request) string { return r.Header.Get(headerRequestID) }, h.tel),
		h.withAccessLog,
	)

	r.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)

	r.HandleFunc("/items/calculate-total/", h.handleSumPrices).Methods(http.MethodPost)
	r.HandleFunc("/items/get_by_owner/{ownerId:[0-9]+}", h.handleItemsByOwner).Methods(http.MethodGet)
	r.HandleFunc("/items/", h.handleCreateItem).Methods(http.MethodPost)
	r.HandleFunc("/items/", h.handleListItems).Methods(http.MethodGet)
	r.HandleFunc("/items/{id}", h.handleCreateItem).Methods(http.MethodPost)
	r.HandleFunc("/items/{id:[0-9]+}", h.handleGetItem).Methods(http.MethodGet)
	r.HandleFunc("/items/{id:[0-9]+}", h.handleUpdateItem).Methods(http.MethodPatch)
	r.HandleFunc("/items/{id:[0-9]+}", h.handleDeleteItem).Methods(http.MethodDelete)

	r.HandleFunc("/users/", h.handleCreateUser).Methods(http.MethodPost)
	r.HandleFunc("/users/", h.handleListUsers).Methods(http.MethodGet)
	r.HandleFunc("/users/with_items/{id:[0-9]+}", h.handleUserWithItems).Methods(http.MethodGet)
	r.HandleFunc("/users/{id:[0-9]+}", h.handleGetUser).Methods(http.MethodGet)
	r.HandleFunc("/users/{id:[0-9]+}", h.handleUpdateUser).Methods(http.MethodPatch)
	r.HandleFunc("/users/{id:[0-9]+}", h.handleDeleteUser).Methods(http.MethodDelete)

	r.HandleFunc("/users/{id:[0-9]+}/cart", h.handleCreateCart).Methods(http.MethodPost)
	r.HandleFunc("/users/{id:[0-9]+}/cart", h.handleGetCart).Methods(http.MethodGet)
	r.HandleFunc("/users/{id:[0-9]+}/cart", h.handleDeleteCart).Methods(http.MethodDelete)
	r.HandleFunc("/users/{id:[0-9]+}/cart/checkout", h.handleCheckout).Methods(http.MethodPost)
	r.HandleFunc("/users/{id:[0-9]+}/buy/{itemId:[0-9]+}", h.handleBuyItem).Methods(http.MethodPost)
	r.HandleFunc("/users/{id:[0-9]+}/purchases", h.handlePurchaseHistory).Methods(http.MethodGet)

	return r
}

// handleHealth godoc
// @Summary Liveness probe
// @Tags service
// @Produce plain
// @Success 200 {string} string "ok"
// @Router /health [get]
func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// withAccessLog writes a single access log after the handler completes.
// It relies on the request-scoped logger already injected by ObservabilityMiddleware.
func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		logctx.FromOr(r.Context(), h.log).Info("http_access",
			observability.F("method", r.Method),
			observability.F("route", routeTemplate(r)),
			observability.F("path", r.URL.Path),
			observability.F("status", lrw.status),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

// withTrace creates a server span for the request using OTel and W3C propagation.
func (h *Handler) withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := otel.Tracer(tracerName)
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		template := routeTemplate(r)
		ctxWithSpan, span := tracer.Start(parentCtx,
			r.Method+" "+template,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", template),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(lrw, r.WithContext(ctxWithSpan))
		span.SetAttributes(attribute.Int("http.status_code", lrw.status))
	})
}

// routeTemplate is the low-cardinality route used in span names and labels.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unknown"
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not an integer", errBadRequest, name, raw)
	}
	return id, nil
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}

// readBody returns the raw body for handlers that inspect it twice.
func readBody(r *http.Request) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("%w: request body is empty", errBadRequest)
	}
	return raw, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
