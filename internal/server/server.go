// Package server exposes the REST API: article listing and filtering,
// save/read toggles, the category taxonomy, manual ingestion triggers and
// session-based authentication.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"lexstream/internal/learnworlds"
	"lexstream/internal/model"
	"lexstream/internal/storage"
	"lexstream/internal/tagmap"
)

// Store is the persistence surface the API reads and writes.
type Store interface {
	ListArticles(ctx context.Context, f storage.ArticleFilter) ([]model.Article, int, error)
	Jurisdictions(ctx context.Context) ([]string, error)
	ListCategories(ctx context.Context) ([]model.LegalCategory, error)
	SetSaved(ctx context.Context, userID, articleID int64, saved bool) error
	SetRead(ctx context.Context, userID, articleID int64, read bool) error
	UpsertUser(ctx context.Context, u *model.User) (int64, error)
	UserByID(ctx context.Context, id int64) (*model.User, error)
}

// Ingestor triggers collector runs.
type Ingestor interface {
	FetchAllFeeds(ctx context.Context) ([]model.FeedResult, error)
	ScrapeRecentJudgments(ctx context.Context, daysBack int) (model.ScrapeResult, error)
}

// Enricher runs the AI enrichment passes.
type Enricher interface {
	ClassifyArticles(ctx context.Context, batch int) (int, error)
	SummarizeJudgments(ctx context.Context, batch int) (int, error)
}

// IdentityProvider authenticates users against the school.
type IdentityProvider interface {
	Login(ctx context.Context, email, password string) (*learnworlds.Profile, error)
}

// Scores recomputes relevance scores, returning how many were updated.
type Scores func(ctx context.Context) (int, error)

type Server struct {
	store    Store
	ingest   Ingestor
	enricher Enricher
	identity IdentityProvider
	sessions *Sessions
	rescore  Scores

	// MapTags converts identity-provider tags to category slugs.
	mapTags func([]string) []string

	echo *echo.Echo
}

type Options struct {
	Store    Store
	Ingest   Ingestor
	Enricher Enricher
	Identity IdentityProvider
	Sessions *Sessions
	Rescore  Scores
	MapTags  func([]string) []string
}

func New(opts Options) *Server {
	s := &Server{
		store:    opts.Store,
		ingest:   opts.Ingest,
		enricher: opts.Enricher,
		identity: opts.Identity,
		sessions: opts.Sessions,
		rescore:  opts.Rescore,
		mapTags:  opts.MapTags,
	}
	if s.mapTags == nil {
		s.mapTags = tagmap.MapTagsToSlugs
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowCredentials: true,
	}))

	api := e.Group("/api")
	api.GET("/health", s.health)

	auth := api.Group("/auth")
	auth.POST("/login", s.login)
	auth.POST("/logout", s.logout)
	auth.GET("/me", s.me, s.sessions.RequireAuth)

	api.GET("/categories", s.categories)

	articles := api.Group("/articles", s.sessions.RequireAuth)
	articles.GET("", s.listArticles)
	articles.GET("/jurisdictions", s.jurisdictions)
	articles.POST("/:id/save", s.setSaved(true))
	articles.DELETE("/:id/save", s.setSaved(false))
	articles.POST("/:id/read", s.setRead(true))
	articles.DELETE("/:id/read", s.setRead(false))

	feeds := api.Group("/feeds", s.sessions.RequireAuth)
	feeds.POST("/refresh", s.refreshFeeds)
	feeds.POST("/scrape-judgments", s.scrapeJudgments)

	s.echo = e
	return s
}

// Start serves until the context is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	}
}

// Handler exposes the routing tree, used by tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
