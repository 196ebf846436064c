package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quickcart/quickcart-backend/api/controllers"
	"github.com/quickcart/quickcart-backend/api/middleware"
	"github.com/quickcart/quickcart-backend/internal/addresses"
	"github.com/quickcart/quickcart-backend/internal/analytics"
	"github.com/quickcart/quickcart-backend/internal/auth"
	"github.com/quickcart/quickcart-backend/internal/banners"
	"github.com/quickcart/quickcart-backend/internal/cart"
	"github.com/quickcart/quickcart-backend/internal/catalog"
	"github.com/quickcart/quickcart-backend/internal/offers"
	"github.com/quickcart/quickcart-backend/internal/orders"
	"github.com/quickcart/quickcart-backend/internal/users"
	"github.com/quickcart/quickcart-backend/internal/wishlist"
	"github.com/quickcart/quickcart-backend/pkg/config"
	"github.com/quickcart/quickcart-backend/pkg/db"
	"github.com/quickcart/quickcart-backend/pkg/logger"
	"github.com/quickcart/quickcart-backend/pkg/metrics"
	"github.com/quickcart/quickcart-backend/pkg/redis"
)

// Services bundles the domain services the router exposes.
type Services struct {
	Auth      auth.Service
	Addresses addresses.Service
	Catalog   catalog.Service
	Cart      cart.Service
	Wishlist  wishlist.Service
	Offers    offers.Service
	Banners   banners.Service
	Orders    orders.Service
	Users     users.Service
	Analytics analytics.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	m *metrics.Metrics,
	registry *prometheus.Registry,
	dbP db.Pinger,
	redisClient *redis.Client,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
		middleware.Logging(logg, m),
	)

	otpPolicy := middleware.NewAuthRateLimitPolicy(
		"otp",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		0, // per-phone budgets are enforced by the auth service
	)
	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		0,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(otpPolicy, redisClient, logg)).Post("/send-otp", controllers.AuthSendOTP(svcs.Auth, logg))
			r.Post("/verify-otp", controllers.AuthVerifyOTP(svcs.Auth, logg))
		})

		r.Get("/categories", controllers.ListCategories(svcs.Catalog, logg))
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(svcs.Catalog, logg))
			r.Get("/{productId}", controllers.GetProduct(svcs.Catalog, logg))
		})
		r.Get("/banners", controllers.BannersList(svcs.Banners, logg))
		r.Route("/offers", func(r chi.Router) {
			r.Get("/", controllers.OffersList(svcs.Offers, logg))
			r.Post("/validate", controllers.OffersValidate(svcs.Offers, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Get("/v1/ping", controllers.PrivatePing())

			r.Route("/v1/me", func(r chi.Router) {
				r.Get("/", controllers.ProfileGet(svcs.Users, logg))
				r.Put("/", controllers.ProfileUpdate(svcs.Users, logg))
			})

			r.Route("/v1/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(svcs.Cart, logg))
				r.Post("/items", controllers.CartAdd(svcs.Cart, logg))
				r.Patch("/items/{productId}", controllers.CartSetQuantity(svcs.Cart, logg))
				r.Delete("/items/{productId}", controllers.CartRemove(svcs.Cart, logg))
				r.Delete("/", controllers.CartClear(svcs.Cart, logg))
			})

			r.Route("/v1/addresses", func(r chi.Router) {
				r.Get("/", controllers.AddressList(svcs.Addresses, logg))
				r.Post("/", controllers.AddressCreate(svcs.Addresses, logg))
				r.Put("/{addressId}", controllers.AddressUpdate(svcs.Addresses, logg))
				r.Delete("/{addressId}", controllers.AddressDelete(svcs.Addresses, logg))
			})

			r.Route("/v1/wishlist", func(r chi.Router) {
				r.Get("/", controllers.WishlistList(svcs.Wishlist, logg))
				r.Post("/", controllers.WishlistAdd(svcs.Wishlist, logg))
				r.Delete("/{productId}", controllers.WishlistRemove(svcs.Wishlist, logg))
			})

			r.Route("/v1/orders", func(r chi.Router) {
				r.Post("/", controllers.OrderCreate(svcs.Orders, logg))
				r.Get("/", controllers.OrdersListMine(svcs.Orders, logg))
				r.Get("/{orderId}", controllers.OrderDetail(svcs.Orders, logg))
				r.Post("/{orderId}/cancel", controllers.OrderCancel(svcs.Orders, logg))
			})
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/auth/login", controllers.AdminAuthLogin(svcs.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RequireAdmin(logg))

			r.Get("/ping", controllers.AdminPing())

			r.Route("/v1/categories", func(r chi.Router) {
				r.Post("/", controllers.AdminCreateCategory(svcs.Catalog, logg))
				r.Patch("/{categoryId}", controllers.AdminUpdateCategory(svcs.Catalog, logg))
			})

			r.Route("/v1/products", func(r chi.Router) {
				r.Post("/", controllers.AdminCreateProduct(svcs.Catalog, logg))
				r.Patch("/{productId}", controllers.AdminUpdateProduct(svcs.Catalog, logg))
				r.Delete("/{productId}", controllers.AdminDeleteProduct(svcs.Catalog, logg))
			})

			r.Route("/v1/offers", func(r chi.Router) {
				r.Post("/", controllers.AdminOfferCreate(svcs.Offers, logg))
				r.Put("/{offerId}", controllers.AdminOfferUpdate(svcs.Offers, logg))
				r.Delete("/{offerId}", controllers.AdminOfferDelete(svcs.Offers, logg))
			})

			r.Route("/v1/banners", func(r chi.Router) {
				r.Post("/", controllers.AdminBannerCreate(svcs.Banners, logg))
				r.Put("/{bannerId}", controllers.AdminBannerUpdate(svcs.Banners, logg))
				r.Delete("/{bannerId}", controllers.AdminBannerDelete(svcs.Banners, logg))
			})

			r.Route("/v1/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminOrdersList(svcs.Orders, logg))
				r.Get("/{orderId}", controllers.OrderDetail(svcs.Orders, logg))
				r.Patch("/{orderId}/status", controllers.AdminOrderUpdateStatus(svcs.Orders, logg))
			})

			r.Route("/v1/analytics", func(r chi.Router) {
				r.Get("/dashboard", controllers.AdminDashboard(svcs.Analytics, logg))
				r.Get("/revenue", controllers.AdminRevenueChart(svcs.Analytics, logg))
				r.Get("/product-performance", controllers.AdminProductPerformance(svcs.Analytics, logg))
				r.Get("/category-performance", controllers.AdminCategoryPerformance(svcs.Analytics, logg))
			})
		})
	})

	return r
}
