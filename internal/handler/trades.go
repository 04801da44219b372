package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/simonexlue/tradelens/internal/auth"
	"github.com/simonexlue/tradelens/internal/csvimport"
	"github.com/simonexlue/tradelens/internal/repository"
	"github.com/simonexlue/tradelens/internal/service"
)

// TradeHandler exposes the trade journal: CRUD, cursor-paginated listings,
// calendar and stats aggregates, CSV import, and AI analysis.
type TradeHandler struct {
	Trades   *service.TradeService
	Query    *service.TradeQueryService
	Calendar *service.CalendarService
	Stats    *service.StatsService
	Importer *service.ImportService
	Images   *service.ImageService
	Analyses *service.AnalysisService
}

func (h *TradeHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/trades")
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/calendar", h.calendar)
	g.GET("/stats", h.stats)
	g.POST("/import", h.importCSV)
	g.GET("/:id", h.get)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.remove)
	g.GET("/:id/images", h.listImages)
	g.POST("/:id/images", h.attachImage)
	g.POST("/:id/analysis", h.analyze)
	g.GET("/:id/analysis", h.latestAnalysis)
}

type tradeRequest struct {
	Note       string           `json:"note"`
	TakenAt    *time.Time       `json:"taken_at"`
	ExitAt     *time.Time       `json:"exit_at"`
	Outcome    *string          `json:"outcome"`
	Strategies []string         `json:"strategies"`
	Mistakes   []string         `json:"mistakes"`
	Side       *string          `json:"side"`
	EntryPrice *decimal.Decimal `json:"entry_price"`
	ExitPrice  *decimal.Decimal `json:"exit_price"`
	Contracts  *int             `json:"contracts"`
	PnL        *decimal.Decimal `json:"pnl"`
	Symbol     string           `json:"symbol"`
	AccountID  *string          `json:"account_id"`
}

func (h *TradeHandler) create(c *gin.Context) {
	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	item, err := h.Trades.Create(c.Request.Context(), auth.UserID(c), service.CreateTradeParams{
		Note:       req.Note,
		TakenAt:    req.TakenAt,
		ExitAt:     req.ExitAt,
		Outcome:    req.Outcome,
		Strategies: req.Strategies,
		Mistakes:   req.Mistakes,
		Side:       req.Side,
		EntryPrice: req.EntryPrice,
		ExitPrice:  req.ExitPrice,
		Contracts:  req.Contracts,
		PnL:        req.PnL,
		Symbol:     req.Symbol,
		AccountID:  req.AccountID,
	})
	if err != nil {
		fail(c, err)
		return
	}
	Ok(c, item, nil)
}

func (h *TradeHandler) list(c *gin.Context) {
	page, err := h.Query.List(c.Request.Context(), auth.UserID(c), service.ListParams{
		Limit:  intQuery(c, "limit", 0),
		Cursor: strings.TrimSpace(c.Query("cursor")),
		Filter: filterFromQuery(c),
	})
	if err != nil {
		fail(c, err)
		return
	}
	var meta map[string]any
	if page.NextCursor != "" {
		meta = map[string]any{"next_cursor": page.NextCursor}
	}
	Ok(c, page.Items, meta)
}

func (h *TradeHandler) get(c *gin.Context) {
	item, err := h.Trades.Get(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	Ok(c, item, nil)
}

type tradeUpdateRequest struct {
	Note       *string          `json:"note"`
	TakenAt    *time.Time       `json:"taken_at"`
	ExitAt     *time.Time       `json:"exit_at"`
	Outcome    *string          `json:"outcome"`
	Strategies *[]string        `json:"strategies"`
	Mistakes   *[]string        `json:"mistakes"`
	Side       *string          `json:"side"`
	EntryPrice *decimal.Decimal `json:"entry_price"`
	ExitPrice  *decimal.Decimal `json:"exit_price"`
	Contracts  *int             `json:"contracts"`
	PnL        *decimal.Decimal `json:"pnl"`
	Symbol     *string          `json:"symbol"`
	AccountID  *string          `json:"account_id"`
}

func (h *TradeHandler) update(c *gin.Context) {
	var req tradeUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	item, err := h.Trades.Update(c.Request.Context(), auth.UserID(c), c.Param("id"), service.UpdateTradeParams{
		Note:       req.Note,
		TakenAt:    req.TakenAt,
		ExitAt:     req.ExitAt,
		Outcome:    req.Outcome,
		Strategies: req.Strategies,
		Mistakes:   req.Mistakes,
		Side:       req.Side,
		EntryPrice: req.EntryPrice,
		ExitPrice:  req.ExitPrice,
		Contracts:  req.Contracts,
		PnL:        req.PnL,
		Symbol:     req.Symbol,
		AccountID:  req.AccountID,
	})
	if err != nil {
		fail(c, err)
		return
	}
	Ok(c, item, nil)
}

func (h *TradeHandler) remove(c *gin.Context) {
	if err := h.Trades.Delete(c.Request.Context(), auth.UserID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	Ok(c, gin.H{"deleted": true}, nil)
}

func (h *TradeHandler) calendar(c *gin.Context) {
	year := intQuery(c, "year", 0)
	month := intQuery(c, "month", 0)
	buckets, err := h.Calendar.Month(c.Request.Context(), auth.UserID(c), year, month, filterFromQuery(c))
	if err != nil {
		fail(c, err)
		return
	}
	Ok(c, buckets, nil)
}

func (h *TradeHandler) stats(c *gin.Context) {
	stats, err := h.Stats.Summary(c.Request.Context(), auth.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	Ok(c, stats, nil)
}

type importRequest struct {
	AccountID *string         `json:"account_id"`
	Rows      []csvimport.Row `json:"rows" binding:"required"`
}

func (h *TradeHandler) importCSV(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	result, err := h.Importer.Import(c.Request.Context(), auth.UserID(c), req.AccountID, req.Rows)
	if err != nil {
		fail(c, err)
		return
	}
	Ok(c, result, nil)
}

func (h *TradeHandler) listImages(c *gin.Context) {
	items, err := h.Images.ListForTrade(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	Ok(c, items, nil)
}

type attachImageRequest struct {
	S3Key       string `json:"s3_key" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	Width       *int   `json:"width"`
	Height      *int   `json:"height"`
}

func (h *TradeHandler) attachImage(c *gin.Context) {
	var req attachImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	item, err := h.Images.Attach(c.Request.Context(), auth.UserID(c), service.AttachParams{
		TradeID:     c.Param("id"),
		S3Key:       req.S3Key,
		ContentType: req.ContentType,
		Width:       req.Width,
		Height:      req.Height,
	})
	if err != nil {
		fail(c, err)
		return
	}
	Ok(c, item, nil)
}

type analyzeRequest struct {
	ImageID string `json:"image_id"`
}

func (h *TradeHandler) analyze(c *gin.Context) {
	// The body is optional; without an image_id the earliest screenshot is
	// analyzed.
	var req analyzeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			Error(c, http.StatusBadRequest, "invalid body", nil)
			return
		}
	}
	item, err := h.Analyses.Analyze(c.Request.Context(), auth.UserID(c), c.Param("id"), strings.TrimSpace(req.ImageID))
	if err != nil {
		fail(c, err)
		return
	}
	Ok(c, item, nil)
}

func (h *TradeHandler) latestAnalysis(c *gin.Context) {
	item, err := h.Analyses.Latest(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	Ok(c, item, nil)
}

// filterFromQuery reads the comma-separated filter dimensions.
func filterFromQuery(c *gin.Context) repository.TradeFilter {
	return repository.TradeFilter{
		Outcomes:   csvQuery(c, "outcome"),
		Sessions:   csvQuery(c, "session"),
		Strategies: csvQuery(c, "strategy"),
		Symbols:    csvQuery(c, "symbol"),
	}
}

func csvQuery(c *gin.Context, key string) []string {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func intQuery(c *gin.Context, key string, def int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
