package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"lexstream/internal/ingest"
	"lexstream/internal/learnworlds"
	"lexstream/internal/model"
	"lexstream/internal/storage"
)

const (
	refreshClassifyBatch  = 20
	refreshSummarizeBatch = 10
	defaultScrapeDaysBack = 30
	maxArticlePageSize    = 100
)

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	ctx := c.Request().Context()
	profile, err := s.identity.Login(ctx, req.Email, req.Password)
	if err != nil {
		if invalid, ok := err.(*learnworlds.ErrInvalidCredentials); ok {
			return echo.NewHTTPError(http.StatusUnauthorized, invalid.Message)
		}
		slog.Error("login", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}

	displayName := profile.DisplayName()
	user := &model.User{
		LearnWorldsUserID: profile.ID,
		Email:             profile.Email,
		Username:          optional(profile.Username),
		DisplayName:       optional(displayName),
		AvatarURL:         optional(profile.AvatarURL),
		LearnWorldsTags:   profile.Tags,
		CategorySlugs:     s.mapTags(profile.Tags),
	}
	if _, err := s.store.UpsertUser(ctx, user); err != nil {
		slog.Error("upsert user", "email", user.Email, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}

	token, err := s.sessions.Issue(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}
	c.SetCookie(s.sessions.Cookie(token, s.sessions.ttl))
	return c.JSON(http.StatusOK, echo.Map{"user": user})
}

func (s *Server) logout(c echo.Context) error {
	c.SetCookie(s.sessions.Cookie("", -time.Second))
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (s *Server) me(c echo.Context) error {
	claims := sessionClaims(c)
	user, err := s.store.UserByID(c.Request().Context(), claims.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"user": user})
}

func (s *Server) categories(c echo.Context) error {
	categories, err := s.store.ListCategories(c.Request().Context())
	if err != nil {
		slog.Error("list categories", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch categories")
	}
	return c.JSON(http.StatusOK, echo.Map{"categories": categories})
}

func (s *Server) listArticles(c echo.Context) error {
	claims := sessionClaims(c)
	limit := intQuery(c, "limit", 30)
	if limit > maxArticlePageSize {
		limit = maxArticlePageSize
	}
	filter := storage.ArticleFilter{
		Page:          intQuery(c, "page", 1),
		Limit:         limit,
		FeedType:      c.QueryParam("feed_type"),
		Jurisdictions: csvQuery(c, "jurisdiction"),
		CategorySlugs: csvQuery(c, "category"),
		Search:        c.QueryParam("search"),
		SavedOnly:     c.QueryParam("saved_only") == "true",
		UserID:        claims.UserID,
	}

	articles, total, err := s.store.ListArticles(c.Request().Context(), filter)
	if err != nil {
		slog.Error("list articles", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch articles")
	}
	if articles == nil {
		articles = []model.Article{}
	}

	pages := total / filter.Limit
	if total%filter.Limit != 0 {
		pages++
	}
	return c.JSON(http.StatusOK, echo.Map{
		"articles": articles,
		"pagination": echo.Map{
			"page":  filter.Page,
			"limit": filter.Limit,
			"total": total,
			"pages": pages,
		},
	})
}

func (s *Server) jurisdictions(c echo.Context) error {
	jurisdictions, err := s.store.Jurisdictions(c.Request().Context())
	if err != nil {
		slog.Error("list jurisdictions", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch jurisdictions")
	}
	if jurisdictions == nil {
		jurisdictions = []string{}
	}
	return c.JSON(http.StatusOK, echo.Map{"jurisdictions": jurisdictions})
}

func (s *Server) setSaved(saved bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		articleID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid article id")
		}
		claims := sessionClaims(c)
		if err := s.store.SetSaved(c.Request().Context(), claims.UserID, articleID, saved); err != nil {
			slog.Error("set saved", "article_id", articleID, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to update article")
		}
		return c.JSON(http.StatusOK, echo.Map{"saved": saved})
	}
}

func (s *Server) setRead(read bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		articleID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid article id")
		}
		claims := sessionClaims(c)
		if err := s.store.SetRead(c.Request().Context(), claims.UserID, articleID, read); err != nil {
			slog.Error("set read", "article_id", articleID, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to update article")
		}
		return c.JSON(http.StatusOK, echo.Map{"read": read})
	}
}

// refreshFeeds runs one full feed cycle inline: fetch, classify, rescore.
func (s *Server) refreshFeeds(c echo.Context) error {
	ctx := c.Request().Context()

	feeds, err := s.ingest.FetchAllFeeds(ctx)
	if errors.Is(err, ingest.ErrRunInProgress) {
		return echo.NewHTTPError(http.StatusConflict, "a feed refresh is already running")
	}
	if err != nil {
		slog.Error("refresh feeds", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to refresh feeds")
	}
	classified, err := s.enricher.ClassifyArticles(ctx, refreshClassifyBatch)
	if err != nil {
		slog.Error("classify after refresh", "error", err)
	}
	updated, err := s.rescore(ctx)
	if err != nil {
		slog.Error("rescore after refresh", "error", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":           "feed refresh complete",
		"feeds":             feeds,
		"classified":        classified,
		"relevance_updated": updated,
	})
}

func (s *Server) scrapeJudgments(c echo.Context) error {
	ctx := c.Request().Context()
	daysBack := intQuery(c, "days_back", defaultScrapeDaysBack)

	scrape, err := s.ingest.ScrapeRecentJudgments(ctx, daysBack)
	if errors.Is(err, ingest.ErrRunInProgress) {
		return echo.NewHTTPError(http.StatusConflict, "a judgment scrape is already running")
	}
	if err != nil {
		slog.Error("scrape judgments", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to scrape judgments")
	}
	summarized, err := s.enricher.SummarizeJudgments(ctx, refreshSummarizeBatch)
	if err != nil {
		slog.Error("summarize after scrape", "error", err)
	}
	updated, err := s.rescore(ctx)
	if err != nil {
		slog.Error("rescore after scrape", "error", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":           "judgment scrape complete",
		"scrape":            scrape,
		"summarized":        summarized,
		"relevance_updated": updated,
	})
}

func intQuery(c echo.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

func csvQuery(c echo.Context, name string) []string {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
