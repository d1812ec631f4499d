package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterDeps struct {
	Auth        *AuthHandler
	Products    *ProductHandler
	Carts       *CartHandler
	Orders      *OrderHandler
	Admin       *AdminHandler
	Users       *UserHandler
	AuthMW      *AuthMiddleware
	CORSOrigins []string
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(ar chi.Router) {
			ar.Post("/register", deps.Auth.handleRegister)
			ar.Post("/login", deps.Auth.handleLogin)
			ar.Post("/logout", deps.Auth.handleLogout)
			ar.With(deps.AuthMW.Authenticate).Get("/me", deps.Auth.handleMe)
		})

		api.Route("/products", func(pr chi.Router) {
			// Reads are public; a valid token still attaches the principal
			// so admins see inactive products.
			pr.With(deps.AuthMW.Attach).Get("/", deps.Products.handleList)
			pr.With(deps.AuthMW.Attach).Get("/{id}", deps.Products.handleGet)

			pr.Group(func(admin chi.Router) {
				admin.Use(deps.AuthMW.Authenticate, deps.AuthMW.RequireAdmin)
				admin.Post("/", deps.Products.handleCreate)
				admin.Put("/{id}", deps.Products.handleUpdate)
				admin.Delete("/{id}", deps.Products.handleDelete)
			})
		})

		api.Route("/cart", func(cr chi.Router) {
			cr.Use(deps.AuthMW.Authenticate)
			cr.Get("/", deps.Carts.handleGet)
			cr.Post("/", deps.Carts.handleAdd)
			cr.Put("/{id}", deps.Carts.handleUpdateQuantity)
			cr.Delete("/{id}", deps.Carts.handleRemove)
			cr.Delete("/", deps.Carts.handleClear)
		})

		api.Route("/orders", func(or chi.Router) {
			or.Use(deps.AuthMW.Authenticate)
			or.Post("/", deps.Orders.handlePlaceOrder)
			or.Get("/", deps.Orders.handleListMine)
			or.Post("/create-razorpay-order", deps.Orders.handleCreateGatewayOrder)
			or.Post("/verify-payment", deps.Orders.handleVerifyPayment)
			or.Get("/{id}", deps.Orders.handleGetByID)
		})

		api.Post("/webhook/razorpay", deps.Orders.handleWebhook)

		api.Route("/admin", func(adr chi.Router) {
			adr.Use(deps.AuthMW.Authenticate, deps.AuthMW.RequireAdmin)
			adr.Get("/stats", deps.Admin.handleStats)
			adr.Get("/analytics", deps.Admin.handleAnalytics)
			adr.Get("/orders", deps.Admin.handleListOrders)
			adr.Put("/orders/{id}", deps.Admin.handleUpdateOrderStatus)
			adr.Get("/users", deps.Users.handleList)
			adr.Get("/users/{id}", deps.Users.handleGet)
			adr.Delete("/users/{id}", deps.Users.handleDelete)
		})

		api.Route("/users", func(ur chi.Router) {
			ur.Use(deps.AuthMW.Authenticate)
			ur.With(deps.AuthMW.RequireAdmin).Get("/", deps.Users.handleList)
			ur.Get("/{id}", deps.Users.handleGet)
			ur.Put("/{id}", deps.Users.handleUpdate)
			ur.With(deps.AuthMW.RequireAdmin).Delete("/{id}", deps.Users.handleDelete)
		})
	})

	return r
}
