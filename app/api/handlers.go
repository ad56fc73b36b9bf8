package api

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/WildDogOne/RSS/app/database"
	"github.com/WildDogOne/RSS/app/llm"
	"github.com/WildDogOne/RSS/app/opml"
	"github.com/WildDogOne/RSS/app/pipeline"
)

// Handler contains HTTP request handlers for the API.
type Handler struct {
	pipeline *pipeline.Service
	model    *llm.Client
	version  string
}

func NewHandler(p *pipeline.Service, model *llm.Client, version string) *Handler {
	return &Handler{pipeline: p, model: model, version: version}
}

// GetHealth handles health check requests
func (h *Handler) GetHealth(c *gin.Context) {
	feedCount, err := h.pipeline.FeedCount(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "error",
			"error":  err.Error(),
		})
		return
	}

	ollamaURL, model := h.model.Config()
	resp := gin.H{
		"status":     "ok",
		"version":    h.version,
		"feeds":      feedCount,
		"ollama_url": ollamaURL,
		"model":      model,
	}
	if t := h.pipeline.LastRefresh(); t != nil {
		resp["last_refresh"] = t
	}

	c.JSON(http.StatusOK, resp)
}

// RegisterFeed adds a feed, or updates an existing one with the same URL.
func (h *Handler) RegisterFeed(c *gin.Context) {
	var req registerFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	f, err := h.pipeline.RegisterFeed(c.Request.Context(), req.URL, req.Title, req.Category, req.IsSecurityFeed)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, newFeedResponse(*f))
}

// ListFeeds returns all feeds grouped by category.
func (h *Handler) ListFeeds(c *gin.Context) {
	groups, err := h.pipeline.FeedsByCategory(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]categoryGroupResponse, 0, len(groups))
	for _, g := range groups {
		feeds := make([]feedResponse, 0, len(g.Feeds))
		for _, f := range g.Feeds {
			feeds = append(feeds, newFeedResponse(f))
		}
		resp = append(resp, categoryGroupResponse{Category: g.Category, Feeds: feeds})
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteFeed removes a feed and all of its entries.
func (h *Handler) DeleteFeed(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	existed, err := h.pipeline.DeleteFeed(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !existed {
		c.JSON(http.StatusNotFound, gin.H{"error": "feed not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// ListEntries returns the latest entries, optionally filtered by feed or
// category. The two filters are mutually exclusive.
func (h *Handler) ListEntries(c *gin.Context) {
	var filter database.EntryFilter

	feedIDParam := c.Query("feed_id")
	categoryParam := c.Query("category")

	if feedIDParam != "" && categoryParam != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "feed_id and category are mutually exclusive"})
		return
	}

	if feedIDParam != "" {
		feedID, err := strconv.ParseInt(feedIDParam, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid feed_id"})
			return
		}
		filter.FeedID = &feedID
	}
	if categoryParam != "" {
		filter.Category = &categoryParam
	}

	filter.UnreadOnly = c.Query("unread") == "true"

	filter.Limit = 50
	if limitParam := c.Query("limit"); limitParam != "" {
		limit, err := strconv.Atoi(limitParam)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		filter.Limit = limit
	}

	entries, err := h.pipeline.LatestEntries(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, newEntryResponse(e))
	}

	c.JSON(http.StatusOK, resp)
}

// MarkEntryRead flags an entry as read.
func (h *Handler) MarkEntryRead(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	entry, err := h.pipeline.MarkEntryRead(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if entry == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
		return
	}

	c.JSON(http.StatusOK, newEntryResponse(*entry))
}

// GenerateSummary produces a model summary for an entry and stores it.
func (h *Handler) GenerateSummary(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	entry, err := h.pipeline.GenerateSummary(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if entry == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
		return
	}

	c.JSON(http.StatusOK, newEntryResponse(*entry))
}

// AnalyzeSecurity runs security enrichment for an entry on demand.
func (h *Handler) AnalyzeSecurity(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	analysis, err := h.pipeline.AnalyzeSecurity(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if analysis == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
		return
	}

	c.JSON(http.StatusOK, newSecurityAnalysisResponse(*analysis))
}

// GetSecurityAnalysis returns the stored security enrichment for an entry.
func (h *Handler) GetSecurityAnalysis(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	analysis, err := h.pipeline.SecurityAnalysis(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if analysis == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no security analysis for entry"})
		return
	}

	c.JSON(http.StatusOK, newSecurityAnalysisResponse(*analysis))
}

// AnalyzeDetailed runs the detailed write-up for an entry on demand.
func (h *Handler) AnalyzeDetailed(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	analysis, err := h.pipeline.AnalyzeDetailed(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if analysis == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
		return
	}

	c.JSON(http.StatusOK, detailedAnalysisResponse{
		EntryID:    analysis.EntryID,
		Content:    analysis.Content,
		AnalyzedAt: analysis.AnalyzedAt,
	})
}

// GetDetailedAnalysis returns the stored write-up for an entry.
func (h *Handler) GetDetailedAnalysis(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	analysis, err := h.pipeline.DetailedAnalysis(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if analysis == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no detailed analysis for entry"})
		return
	}

	c.JSON(http.StatusOK, detailedAnalysisResponse{
		EntryID:    analysis.EntryID,
		Content:    analysis.Content,
		AnalyzedAt: analysis.AnalyzedAt,
	})
}

// GetCategories returns the distinct feed categories.
func (h *Handler) GetCategories(c *gin.Context) {
	categories, err := h.pipeline.Categories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GetIOCs returns all extracted indicators across feeds, newest first.
func (h *Handler) GetIOCs(c *gin.Context) {
	records, err := h.pipeline.AllIOCs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]iocResponse, 0, len(records))
	for _, r := range records {
		resp = append(resp, newIOCResponse(r))
	}

	c.JSON(http.StatusOK, resp)
}

// ListModels returns the models available on the model server.
func (h *Handler) ListModels(c *gin.Context) {
	models := h.model.ListModels(c.Request.Context())
	_, current := h.model.Config()

	c.JSON(http.StatusOK, gin.H{
		"models":  models,
		"current": current,
	})
}

// UpdateConfig changes the model server URL and/or active model.
func (h *Handler) UpdateConfig(c *gin.Context) {
	var req updateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	h.model.UpdateConfig(req.OllamaURL, req.Model)

	baseURL, model := h.model.Config()
	c.JSON(http.StatusOK, gin.H{
		"ollama_url": baseURL,
		"model":      model,
	})
}

// Refresh fetches all feeds synchronously.
func (h *Handler) Refresh(c *gin.Context) {
	if err := h.pipeline.RefreshAllFeeds(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "refreshed"})
}

// ImportOPML registers every feed found in an uploaded OPML document.
// Accepts either a multipart "file" field or a raw XML body.
func (h *Handler) ImportOPML(c *gin.Context) {
	data, err := readOPMLBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	feeds, err := opml.Parse(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid OPML document"})
		return
	}

	imported := 0
	for _, f := range feeds {
		if _, err := h.pipeline.RegisterFeed(c.Request.Context(), f.URL, f.Title, f.Category, false); err != nil {
			slog.Error("OPML feed registration failed", "url", f.URL, "error", err)
			continue
		}
		imported++
	}

	c.JSON(http.StatusOK, gin.H{
		"found":    len(feeds),
		"imported": imported,
	})
}

func readOPMLBody(c *gin.Context) ([]byte, error) {
	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}

	return io.ReadAll(c.Request.Body)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
