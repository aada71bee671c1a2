package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fjod/go_storefront/internal/metrics"
)

type RouterDeps struct {
	Catalog        Catalog
	Carts          Carts
	Orders         Orders
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
	AdminAPIKey    string
	RequestTimeout time.Duration
	BaseURL        string
	StaticDir      string
	UploadDir      string
	UploadMaxBytes int64
}

// NewRouter wires every route and wraps the result in OpenTelemetry instrumentation.
func NewRouter(deps RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	products := NewProductHandler(deps.Catalog, timeout)
	offers := NewOfferHandler(deps.Catalog, timeout)
	carts := NewCartHandler(deps.Carts, timeout)
	orders := NewOrdersHandler(deps.Orders, timeout)
	payments := NewPaymentsHandler(deps.Orders, timeout)
	uploads := NewUploadHandler(deps.UploadDir, deps.UploadMaxBytes, deps.BaseURL)
	admin := AdminKeyMiddleware(deps.AdminAPIKey)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger, deps.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Compress(5, "application/json", "text/html", "text/css", "application/javascript"))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", products.List)
			r.Get("/{id}", products.Get)
			r.With(admin).Post("/", products.Create)
			r.With(admin).Put("/{id}", products.Update)
			r.With(admin).Delete("/{id}", products.Delete)
		})

		r.Route("/offers", func(r chi.Router) {
			r.Get("/", offers.List)
			r.With(admin).Post("/", offers.Create)
			r.With(admin).Delete("/{id}", offers.Delete)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(SessionMiddleware)
			r.Get("/", carts.GetCart)
			r.Post("/", carts.AddItem)
			r.Delete("/", carts.Clear)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", orders.Create)
			r.Get("/{id}", orders.Get)
			r.With(admin).Get("/", orders.List)
			r.With(admin).Put("/{id}", orders.Update)
		})

		r.Get("/search", Search)
		r.Post("/uploads", uploads.Upload)
	})

	r.Route("/payments", func(r chi.Router) {
		r.Post("/upi/confirm", payments.ConfirmUPI)
		r.Post("/paytm/create", payments.CreatePaytm)
		r.Post("/paytm/webhook", payments.PaytmWebhook)
	})

	if deps.UploadDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(deps.UploadDir))))
	}
	if deps.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(deps.StaticDir)))
	}

	return otelhttp.NewHandler(r, "storefront",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health" && r.URL.Path != "/metrics"
		}),
	)
}
