package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/simonexlue/tradelens/internal/config"
	"github.com/simonexlue/tradelens/internal/models"
	"github.com/simonexlue/tradelens/internal/repository"
	"github.com/simonexlue/tradelens/internal/storage"
)

// extByMIME is the closed set of accepted screenshot types.
var extByMIME = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
}

// ImageService manages screenshot uploads: presigned PUT URLs, metadata rows,
// streaming reads, and deletion.
type ImageService struct {
	repo    repository.Repository
	store   storage.ObjectStore
	maxSize int64
	expiry  int64
	logger  *zap.Logger
}

func NewImageService(repo repository.Repository, store storage.ObjectStore, s3cfg config.S3Config, upload config.UploadConfig, logger *zap.Logger) *ImageService {
	return &ImageService{
		repo:    repo,
		store:   store,
		maxSize: upload.MaxSizeBytes,
		expiry:  int64(s3cfg.PresignExpiry.Seconds()),
		logger:  logger,
	}
}

type PresignParams struct {
	TradeID     string
	ContentType string
	SizeBytes   int64
}

type PresignResult struct {
	URL       string `json:"url"`
	Key       string `json:"key"`
	ExpiresIn int64  `json:"expires_in"`
}

// PresignUpload validates the declared upload and returns a time-bounded PUT
// URL for a fresh key inside the trade's namespace. The trade id is optional:
// without one a fresh id is minted so the upload can precede the trade row,
// with one the caller must own the trade.
func (s *ImageService) PresignUpload(ctx context.Context, userID string, params PresignParams) (PresignResult, error) {
	ext, ok := extByMIME[strings.ToLower(strings.TrimSpace(params.ContentType))]
	if !ok {
		return PresignResult{}, fmt.Errorf("%w: unsupported content type %q", ErrInvalidInput, params.ContentType)
	}
	if params.SizeBytes <= 0 || params.SizeBytes > s.maxSize {
		return PresignResult{}, fmt.Errorf("%w: size must be in (0, %d] bytes", ErrInvalidInput, s.maxSize)
	}
	tradeID := strings.TrimSpace(params.TradeID)
	if tradeID == "" {
		tradeID = uuid.NewString()
	} else if err := s.checkTradeOwnership(ctx, userID, tradeID); err != nil {
		return PresignResult{}, err
	}

	key := storage.NewObjectKey(userID, tradeID, ext)
	url, err := s.store.PresignPut(ctx, key, params.ContentType)
	if err != nil {
		return PresignResult{}, fmt.Errorf("%w: presign: %v", ErrUpstream, err)
	}
	return PresignResult{URL: url, Key: key, ExpiresIn: s.expiry}, nil
}

type AttachParams struct {
	TradeID     string
	S3Key       string
	ContentType string
	Width       *int
	Height      *int
}

// Attach records an uploaded object against its trade. The key must sit in
// the caller's namespace for that trade and must not already be registered.
func (s *ImageService) Attach(ctx context.Context, userID string, params AttachParams) (*models.Image, error) {
	if _, ok := extByMIME[strings.ToLower(strings.TrimSpace(params.ContentType))]; !ok {
		return nil, fmt.Errorf("%w: unsupported content type %q", ErrInvalidInput, params.ContentType)
	}
	if err := s.checkTradeOwnership(ctx, userID, params.TradeID); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(params.S3Key, storage.KeyPrefix(userID, params.TradeID)) {
		return nil, fmt.Errorf("%w: key outside trade namespace", ErrInvalidInput)
	}
	existing, err := s.repo.GetImageByKey(ctx, params.S3Key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: key already registered", ErrInvalidInput)
	}

	item := &models.Image{
		ID:          uuid.NewString(),
		UserID:      userID,
		TradeID:     params.TradeID,
		S3Key:       params.S3Key,
		ContentType: strings.ToLower(strings.TrimSpace(params.ContentType)),
		Width:       params.Width,
		Height:      params.Height,
	}
	if err := s.repo.InsertImage(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// ListForTrade returns the trade's images, earliest first.
func (s *ImageService) ListForTrade(ctx context.Context, userID, tradeID string) ([]models.Image, error) {
	if err := s.checkTradeOwnership(ctx, userID, tradeID); err != nil {
		return nil, err
	}
	return s.repo.ListImagesByTradeID(ctx, userID, tradeID)
}

// Open streams an object by key. Only the owner of the registered image may
// read it; unregistered keys are invisible.
func (s *ImageService) Open(ctx context.Context, userID, key string) (*storage.Object, error) {
	img, err := s.repo.GetImageByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if img == nil {
		return nil, fmt.Errorf("%w: image", ErrNotFound)
	}
	if img.UserID != userID {
		return nil, fmt.Errorf("%w: image", ErrForbidden)
	}
	obj, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: download: %v", ErrUpstream, err)
	}
	return obj, nil
}

// Delete removes the object first, then the row. If the object delete fails
// the row stays so a retry can finish the job.
func (s *ImageService) Delete(ctx context.Context, userID, id string) error {
	img, err := s.repo.GetImage(ctx, userID, id)
	if err != nil {
		return err
	}
	if img == nil {
		return fmt.Errorf("%w: image %s", ErrNotFound, id)
	}
	if err := s.store.Delete(ctx, img.S3Key); err != nil {
		return fmt.Errorf("%w: delete object: %v", ErrUpstream, err)
	}
	return s.repo.DeleteImage(ctx, userID, id)
}

func (s *ImageService) checkTradeOwnership(ctx context.Context, userID, tradeID string) error {
	item, err := s.repo.GetTrade(ctx, userID, tradeID)
	if err != nil {
		return err
	}
	if item == nil {
		return tradeAccessError(ctx, s.repo, tradeID)
	}
	return nil
}
