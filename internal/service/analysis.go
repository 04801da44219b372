package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/simonexlue/tradelens/internal/ai"
	"github.com/simonexlue/tradelens/internal/models"
	"github.com/simonexlue/tradelens/internal/repository"
	"github.com/simonexlue/tradelens/internal/storage"
)

// AnalysisService produces AI coaching feedback for a trade from one of its
// screenshots and stores the result.
type AnalysisService struct {
	repo     repository.Repository
	store    storage.ObjectStore
	analyzer ai.Analyzer
	model    string
	logger   *zap.Logger
}

func NewAnalysisService(repo repository.Repository, store storage.ObjectStore, analyzer ai.Analyzer, model string, logger *zap.Logger) *AnalysisService {
	return &AnalysisService{repo: repo, store: store, analyzer: analyzer, model: model, logger: logger}
}

// Analyze runs the AI coach against one of the trade's screenshots and
// persists a new analysis row. An explicit imageID picks the screenshot;
// otherwise the earliest one is used. Re-running appends; Latest surfaces
// the newest.
func (s *AnalysisService) Analyze(ctx context.Context, userID, tradeID, imageID string) (*models.Analysis, error) {
	trade, err := s.repo.GetTrade(ctx, userID, tradeID)
	if err != nil {
		return nil, err
	}
	if trade == nil {
		return nil, tradeAccessError(ctx, s.repo, tradeID)
	}

	img, err := s.resolveImage(ctx, userID, tradeID, imageID)
	if err != nil {
		return nil, err
	}

	obj, err := s.store.Get(ctx, img.S3Key)
	if err != nil {
		return nil, fmt.Errorf("%w: download screenshot: %v", ErrUpstream, err)
	}
	defer obj.Body.Close()
	imageBytes, err := io.ReadAll(obj.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read screenshot: %v", ErrUpstream, err)
	}

	result, err := s.analyzer.AnalyzeTrade(ctx, ai.Request{
		ImageBytes: imageBytes,
		MimeType:   img.ContentType,
		Note:       trade.Note,
		Metadata:   tradeMetadata(trade),
	})
	if err != nil {
		s.logger.Warn("analysis failed", zap.String("trade_id", tradeID), zap.Error(err))
		return nil, fmt.Errorf("%w: analysis: %v", ErrUpstream, err)
	}

	tips, _ := json.Marshal(result.Tips)
	item := &models.Analysis{
		ID:           uuid.NewString(),
		UserID:       userID,
		TradeID:      tradeID,
		ImageID:      img.ID,
		WhatHappened: result.WhatHappened,
		WhyResult:    result.WhyResult,
		Tips:         datatypes.JSON(tips),
		Model:        s.model,
	}
	if err := s.repo.InsertAnalysis(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// resolveImage picks the screenshot to analyze: the requested one when an id
// is given, the trade's earliest otherwise.
func (s *AnalysisService) resolveImage(ctx context.Context, userID, tradeID, imageID string) (models.Image, error) {
	if imageID != "" {
		img, err := s.repo.GetImage(ctx, userID, imageID)
		if err != nil {
			return models.Image{}, err
		}
		if img == nil {
			return models.Image{}, fmt.Errorf("%w: image %s", ErrNotFound, imageID)
		}
		if img.TradeID != tradeID {
			return models.Image{}, fmt.Errorf("%w: image belongs to another trade", ErrInvalidInput)
		}
		return *img, nil
	}

	images, err := s.repo.ListImagesByTradeID(ctx, userID, tradeID)
	if err != nil {
		return models.Image{}, err
	}
	if len(images) == 0 {
		return models.Image{}, fmt.Errorf("%w: trade has no screenshot to analyze", ErrInvalidInput)
	}
	return images[0], nil
}

// Latest returns the most recent analysis for the trade.
func (s *AnalysisService) Latest(ctx context.Context, userID, tradeID string) (*models.Analysis, error) {
	trade, err := s.repo.GetTrade(ctx, userID, tradeID)
	if err != nil {
		return nil, err
	}
	if trade == nil {
		return nil, tradeAccessError(ctx, s.repo, tradeID)
	}
	item, err := s.repo.LatestAnalysisByTradeID(ctx, userID, tradeID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: no analysis for trade", ErrNotFound)
	}
	return item, nil
}

// tradeMetadata flattens the trade's structured fields for the prompt.
func tradeMetadata(trade *models.Trade) map[string]any {
	meta := map[string]any{}
	if trade.Symbol != "" {
		meta["symbol"] = trade.Symbol
	}
	if trade.Side != nil {
		meta["side"] = *trade.Side
	}
	if trade.Outcome != nil {
		meta["outcome"] = *trade.Outcome
	}
	if trade.Session != nil {
		meta["session"] = *trade.Session
	}
	if trade.PnL != nil {
		meta["pnl"] = trade.PnL.String()
	}
	if trade.EntryPrice != nil {
		meta["entry_price"] = trade.EntryPrice.String()
	}
	if trade.ExitPrice != nil {
		meta["exit_price"] = trade.ExitPrice.String()
	}
	if trade.Contracts != nil {
		meta["contracts"] = *trade.Contracts
	}
	if len(trade.Strategies) > 0 {
		var tags []string
		if err := json.Unmarshal(trade.Strategies, &tags); err == nil && len(tags) > 0 {
			meta["strategies"] = tags
		}
	}
	return meta
}
