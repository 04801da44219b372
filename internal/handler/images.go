package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simonexlue/tradelens/internal/auth"
	"github.com/simonexlue/tradelens/internal/service"
)

// ImageHandler serves presigned uploads plus image streaming and deletion.
// Upload bytes go straight to S3; only the presign and the metadata row pass
// through the API.
type ImageHandler struct {
	Images *service.ImageService
}

func (h *ImageHandler) Register(r *gin.Engine) {
	r.POST("/api/v1/uploads/presign", h.presign)
	// Keys contain slashes, hence the wildcard route for reads.
	r.GET("/api/v1/images/*key", h.stream)
	r.DELETE("/api/v1/images/:id", h.remove)
}

type presignRequest struct {
	TradeID     string `json:"trade_id"`
	ContentType string `json:"content_type" binding:"required"`
	SizeBytes   int64  `json:"size_bytes" binding:"required"`
}

func (h *ImageHandler) presign(c *gin.Context) {
	var req presignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	result, err := h.Images.PresignUpload(c.Request.Context(), auth.UserID(c), service.PresignParams{
		TradeID:     req.TradeID,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
	})
	if err != nil {
		fail(c, err)
		return
	}
	Ok(c, result, nil)
}

func (h *ImageHandler) stream(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	obj, err := h.Images.Open(c.Request.Context(), auth.UserID(c), key)
	if err != nil {
		fail(c, err)
		return
	}
	defer obj.Body.Close()

	// Screenshots are immutable per key but owner-scoped, so caching stays
	// private to the browser.
	c.Header("Cache-Control", "private, max-age=60")
	c.Header("Content-Disposition", "inline")
	if obj.ETag != "" {
		c.Header("ETag", obj.ETag)
	}
	if obj.ContentLength > 0 {
		c.Header("Content-Length", strconv.FormatInt(obj.ContentLength, 10))
	}
	c.DataFromReader(http.StatusOK, obj.ContentLength, obj.ContentType, obj.Body, nil)
}

func (h *ImageHandler) remove(c *gin.Context) {
	if err := h.Images.Delete(c.Request.Context(), auth.UserID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	Ok(c, gin.H{"deleted": true}, nil)
}
