package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mesubash/library-management-system-sub000/api/controllers"
	"github.com/mesubash/library-management-system-sub000/api/middleware"
	authsvc "github.com/mesubash/library-management-system-sub000/internal/auth"
	"github.com/mesubash/library-management-system-sub000/internal/borrow"
	"github.com/mesubash/library-management-system-sub000/internal/catalog"
	"github.com/mesubash/library-management-system-sub000/internal/categories"
	"github.com/mesubash/library-management-system-sub000/internal/stats"
	"github.com/mesubash/library-management-system-sub000/pkg/auth/session"
	"github.com/mesubash/library-management-system-sub000/pkg/config"
	"github.com/mesubash/library-management-system-sub000/pkg/db"
	"github.com/mesubash/library-management-system-sub000/pkg/enums"
	"github.com/mesubash/library-management-system-sub000/pkg/logger"
	"github.com/mesubash/library-management-system-sub000/pkg/redis"
)

// Services bundles everything the router hands to its controllers.
type Services struct {
	Auth       authsvc.Service
	Borrow     borrow.Service
	Catalog    catalog.Service
	Categories categories.Service
	Stats      stats.Service
}

// NewRouter assembles the full HTTP surface.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessions session.AccessSessionChecker,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(svcs.Auth, logg))
		r.Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svcs.Auth, logg))
		r.With(middleware.Auth(cfg.JWT, sessions, logg)).
			Post("/logout", controllers.AuthLogout(svcs.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))

		r.Route("/books", func(r chi.Router) {
			r.Get("/", controllers.BookList(svcs.Catalog, logg))
			r.Get("/{bookId}", controllers.BookDetail(svcs.Catalog, logg))
		})
		r.Get("/categories", controllers.CategoryList(svcs.Categories, logg))

		r.Route("/borrow", func(r chi.Router) {
			r.Post("/", controllers.BorrowRequest(svcs.Borrow, logg))
			r.Get("/", controllers.BorrowList(svcs.Borrow, logg))
			r.Get("/{recordId}", controllers.BorrowDetail(svcs.Borrow, logg))
			r.Delete("/{recordId}", controllers.BorrowCancel(svcs.Borrow, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))

		r.Route("/books", func(r chi.Router) {
			r.Post("/", controllers.AdminBookCreate(svcs.Catalog, logg))
			r.Patch("/{bookId}", controllers.AdminBookUpdate(svcs.Catalog, logg))
			r.Put("/{bookId}/copies", controllers.AdminBookSetCopies(svcs.Catalog, logg))
			r.Delete("/{bookId}", controllers.AdminBookDelete(svcs.Catalog, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Post("/", controllers.AdminCategoryCreate(svcs.Categories, logg))
			r.Put("/{categoryId}", controllers.AdminCategoryRename(svcs.Categories, logg))
			r.Delete("/{categoryId}", controllers.AdminCategoryDelete(svcs.Categories, logg))
		})

		r.Route("/borrow", func(r chi.Router) {
			r.Post("/{recordId}/approve", controllers.AdminBorrowApprove(svcs.Borrow, logg))
			r.Post("/{recordId}/reject", controllers.AdminBorrowReject(svcs.Borrow, logg))
			r.Post("/{recordId}/pickup", controllers.AdminBorrowPickup(svcs.Borrow, logg))
			r.Post("/{recordId}/return", controllers.AdminBorrowReturn(svcs.Borrow, logg))
		})

		r.Route("/stats", func(r chi.Router) {
			r.Get("/dashboard", controllers.AdminDashboard(svcs.Stats, logg))
			r.Get("/overdue", controllers.AdminOverdue(svcs.Stats, logg))
			r.Get("/most-borrowed", controllers.AdminMostBorrowed(svcs.Stats, logg))
		})
	})

	return r
}
