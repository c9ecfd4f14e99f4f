package http

import (
	"net/http"
	"time"

	"github.com/fjod/go_grocer/internal/composer"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type Services struct {
	Catalog  Catalog
	Carts    Carts
	Orders   Orders
	Dishes   Dishes
	Social   Social
	Regions  Regions
	Media    Uploader
	Sessions *composer.Sessions
}

type RouterConfig struct {
	Logger         *zap.Logger
	Auth           func(http.Handler) http.Handler
	RequestTimeout time.Duration
	Currency       string
}

// NewRouter wires every API route. /health is served without authentication.
func NewRouter(svc Services, cfg RouterConfig) http.Handler {
	products := NewProductHandler(svc.Catalog, cfg.RequestTimeout)
	carts := NewCartHandler(svc.Carts, svc.Catalog, cfg.RequestTimeout)
	orders := NewOrdersHandler(svc.Orders, cfg.Currency, cfg.RequestTimeout)
	dishes := NewDishHandler(svc.Dishes, svc.Social, svc.Carts, svc.Catalog, cfg.RequestTimeout)
	regions := NewRegionHandler(svc.Regions, svc.Carts, svc.Catalog, cfg.RequestTimeout)
	composers := NewComposerHandler(svc.Sessions, svc.Catalog, svc.Dishes, svc.Media, cfg.RequestTimeout)
	public := NewSocialHandler(svc.Social, cfg.RequestTimeout)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cfg.Auth)

		r.Get("/products", products.ListAll)
		r.Get("/categories/{categoryID}/products", products.ListByCategory)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", carts.GetCart)
			r.Delete("/", carts.ClearCart)
			r.Post("/items", carts.AddItem)
			r.Delete("/items/{productID}", carts.RemoveItem)
			r.Post("/items/{productID}/increment", carts.IncrementQuantity)
			r.Post("/items/{productID}/decrement", carts.DecrementQuantity)
		})

		r.Post("/checkout", orders.Checkout)
		r.Get("/orders", orders.ListOrders)

		r.Route("/dishes", func(r chi.Router) {
			r.Get("/", dishes.List)
			r.Get("/{dishID}", dishes.Get)
			r.Post("/{dishID}/share", dishes.Share)
			r.Post("/{dishID}/cart", dishes.AddToCart)
		})

		r.Route("/regions", func(r chi.Router) {
			r.Get("/", regions.List)
			r.Get("/{regionID}/dishes", regions.ListDishes)
			r.Get("/{regionID}/dishes/{dishID}", regions.GetDish)
			r.Post("/{regionID}/dishes/{dishID}/cart", regions.AddToCart)
		})

		r.Route("/composer", func(r chi.Router) {
			r.Post("/", composers.Start)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", composers.Get)
				r.Delete("/", composers.Abandon)
				r.Put("/name", composers.SetName)
				r.Put("/image", composers.UploadImage)
				r.Get("/ingredients", composers.SearchIngredients)
				r.Post("/ingredients/{productID}/toggle", composers.ToggleIngredient)
				r.Post("/ingredients/{productID}/increment", composers.IncrementQuantity)
				r.Post("/ingredients/{productID}/decrement", composers.DecrementQuantity)
				r.Put("/ingredients/{productID}/quantity", composers.SetQuantity)
				r.Post("/proceed", composers.ProceedToSteps)
				r.Post("/steps", composers.AddStep)
				r.Post("/save", composers.Save)
			})
		})

		r.Route("/public-dishes", func(r chi.Router) {
			r.Get("/", public.List)
			r.Post("/{dishID}/like", public.ToggleLike)
			r.Post("/{dishID}/comments", public.AddComment)
			r.Put("/{dishID}/rating", public.SetRating)
		})
	})

	return otelhttp.NewHandler(r, "grocer-api")
}
