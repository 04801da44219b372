package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/simonexlue/tradelens/internal/auth"
	"github.com/simonexlue/tradelens/internal/service"
)

type AccountHandler struct {
	Accounts *service.AccountService
}

func (h *AccountHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/accounts")
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.get)
}

type accountRequest struct {
	Label       string           `json:"label" binding:"required"`
	Provider    *string          `json:"provider"`
	AccountType *string          `json:"account_type"`
	Size        *decimal.Decimal `json:"size"`
}

func (h *AccountHandler) create(c *gin.Context) {
	var req accountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	item, err := h.Accounts.Create(c.Request.Context(), auth.UserID(c), service.CreateAccountParams{
		Label:       req.Label,
		Provider:    req.Provider,
		AccountType: req.AccountType,
		Size:        req.Size,
	})
	if err != nil {
		fail(c, err)
		return
	}
	Ok(c, item, nil)
}

func (h *AccountHandler) list(c *gin.Context) {
	items, err := h.Accounts.List(c.Request.Context(), auth.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	Ok(c, items, nil)
}

func (h *AccountHandler) get(c *gin.Context) {
	item, err := h.Accounts.Get(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	Ok(c, item, nil)
}
