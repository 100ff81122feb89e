package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/config"
	bookmarksvc "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/services/bookmarks"
	contentsvc "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/services/content"
	practicesvc "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/services/practice"
	progresssvc "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/services/progress"
	sessionsvc "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/services/session"
	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/transport/http/handlers"
)

type Dependencies struct {
	SessionService  *sessionsvc.Service
	JWTManager      *sessionsvc.JWTManager
	ProgressService *progresssvc.Service
	PracticeService *practicesvc.Service
	BookmarkService *bookmarksvc.Service
	ContentService  *contentsvc.Service
	Logger          *zap.Logger
	Config          config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(deps.SessionService, deps.JWTManager)
	progressHandler := handlers.NewProgressHandler(deps.ProgressService)
	practiceHandler := handlers.NewPracticeHandler(deps.PracticeService)
	bookmarksHandler := handlers.NewBookmarksHandler(deps.BookmarkService)
	catalogHandler := handlers.NewCatalogHandler(deps.ContentService)

	authMW := AuthMiddleware(deps.JWTManager, deps.Logger)
	adminMW := RequireRole("admin")

	r.Get("/healthz", healthHandler.Handle)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/sessions", authHandler.Issue)
		r.Post("/refresh", authHandler.Refresh)
		r.Post("/validate", authHandler.Validate)
		r.With(authMW).Post("/logout", authHandler.Logout)
		r.With(authMW).Post("/logout_all", authHandler.LogoutAll)
		r.With(authMW).Get("/sessions", authHandler.Sessions)
	})

	r.Route("/catalog", func(r chi.Router) {
		r.Get("/certifications", catalogHandler.Certifications)
		r.Get("/certifications/{certificationID}/topics", catalogHandler.Topics)
		r.Get("/topics/{topicID}/questions", catalogHandler.Questions)
		r.Get("/questions/{questionID}", catalogHandler.Question)
		r.With(authMW).Post("/active_certification", catalogHandler.SetActiveCertification)
		r.With(authMW, adminMW).Post("/questions/{questionID}/image", catalogHandler.UploadQuestionImage)
	})

	r.Route("/progress", func(r chi.Router) {
		r.Use(authMW)
		r.Post("/attempts", progressHandler.Record)
		r.Get("/weakness/{topicID}", progressHandler.Weakness)
		r.Get("/history", progressHandler.History)
	})

	r.With(authMW).Get("/practice/next", practiceHandler.Next)

	r.Route("/bookmarks", func(r chi.Router) {
		r.Use(authMW)
		r.Post("/", bookmarksHandler.Create)
		r.Post("/flag", bookmarksHandler.Flag)
		r.Get("/", bookmarksHandler.List)
		r.Delete("/{id}", bookmarksHandler.Delete)
	})
}
