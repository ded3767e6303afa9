package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"newsagent/internal/domain"
	"newsagent/internal/service"
)

type statusRequest struct {
	URL     string  `json:"url"`
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
	Read    *bool   `json:"read"`
}

type summaryRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return success(c, map[string]any{
		"service": "newsagent",
		"time":    time.Now().UTC(),
	})
}

func (s *Server) handleCrawl(c echo.Context) error {
	result, err := s.tasks.Crawl(c.Request().Context())
	return s.taskResponse(c, service.TaskCrawl, result, err)
}

func (s *Server) handleDeliver(c echo.Context) error {
	result, err := s.tasks.Deliver(c.Request().Context())
	return s.taskResponse(c, service.TaskDeliver, result, err)
}

func (s *Server) taskResponse(c echo.Context, task string, result *service.Result, err error) error {
	if err != nil {
		s.logger.Error("task failed", "task", task, "error", err)
		return internalError(c, "Error: "+err.Error())
	}
	if result.Skipped {
		return fail(c, http.StatusConflict, result.Message, nil)
	}
	return success(c, result)
}

func (s *Server) handleStatus(c echo.Context) error {
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return failValidation(c, map[string]string{"body": "must be a JSON object"})
	}

	fieldErrors := map[string]string{}
	if strings.TrimSpace(req.URL) == "" {
		fieldErrors["url"] = "is required"
	}
	if req.Rating != nil && (*req.Rating < 0 || *req.Rating > 5) {
		fieldErrors["rating"] = "must be between 0 and 5"
	}
	if len(fieldErrors) > 0 {
		return failValidation(c, fieldErrors)
	}

	article, err := s.status.Update(c.Request().Context(), domain.StatusUpdate{
		URL:     req.URL,
		Rating:  req.Rating,
		Comment: req.Comment,
		Read:    req.Read,
	})
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return failNotFound(c, "Article not found")
	case errors.Is(err, service.ErrInvalidRating):
		return failValidation(c, map[string]string{"rating": err.Error()})
	case err != nil:
		s.logger.Error("status update failed", "url", req.URL, "error", err)
		return internalError(c, "Failed to update status")
	}

	return success(c, article)
}

func (s *Server) handleSummary(c echo.Context) error {
	var req summaryRequest
	if err := c.Bind(&req); err != nil {
		return failValidation(c, map[string]string{"body": "must be a JSON object"})
	}
	if strings.TrimSpace(req.URL) == "" {
		return failValidation(c, map[string]string{"url": "is required"})
	}

	article, err := s.summary.Summarize(c.Request().Context(), req.URL)
	switch {
	case errors.Is(err, service.ErrSummaryDisabled):
		return fail(c, http.StatusServiceUnavailable, "Summaries are not configured", nil)
	case errors.Is(err, domain.ErrNotFound):
		return failNotFound(c, "Article not found")
	case err != nil:
		s.logger.Error("summary failed", "url", req.URL, "error", err)
		return internalError(c, "Failed to summarize article")
	}

	return success(c, map[string]any{
		"url":     article.URL,
		"summary": article.Summary,
	})
}

func (s *Server) handleReputation(c echo.Context) error {
	top := 0
	if raw := strings.TrimSpace(c.QueryParam("top")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return failValidation(c, map[string]string{"top": "must be a non-negative integer"})
		}
		top = n
	}

	ranking, err := s.reputation.Ranking(c.Request().Context(), top)
	if err != nil {
		s.logger.Error("reputation report failed", "error", err)
		return internalError(c, "Failed to load reputation")
	}

	return success(c, map[string]any{
		"items": ranking,
	})
}
