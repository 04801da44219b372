package gormrepository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/simonexlue/tradelens/internal/models"
	"github.com/simonexlue/tradelens/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// --- Trades -----------------------------------------------------------------

func (s *Store) InsertTrade(ctx context.Context, item *models.Trade) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetTrade(ctx context.Context, userID, id string) (*models.Trade, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Trade
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetTradeOwner(ctx context.Context, id string) (string, error) {
	if s == nil || s.db == nil {
		return "", nil
	}
	var item models.Trade
	err := s.db.WithContext(ctx).
		Select("id", "user_id").
		Where("id = ?", id).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return item.UserID, nil
}

func (s *Store) UpdateTradeFields(ctx context.Context, userID, id string, updates map[string]any) error {
	if s == nil || s.db == nil || len(updates) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Trade{}).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Updates(updates).Error
}

func (s *Store) DeleteTrade(ctx context.Context, userID, id string) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Delete(&models.Trade{}).Error
}

func (s *Store) ListTrades(ctx context.Context, params repository.ListTradesParams) ([]models.Trade, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.Trade{}).
		Where("user_id = ?", params.UserID)
	query = applyTradeFilter(query, params.Filter)
	if params.Seek != nil {
		// Keyset predicate: strictly after the cursor in descending
		// (sort_at, id) order. Stable under concurrent inserts.
		query = query.Where(
			"(sort_at < ? OR (sort_at = ? AND id < ?))",
			params.Seek.SortAt, params.Seek.SortAt, params.Seek.ID,
		)
	}
	limit := normalizeLimit(params.Limit, 20)
	var items []models.Trade
	err := query.
		Order("sort_at desc").
		Order("id desc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListTradesBetween(ctx context.Context, userID string, from, to time.Time, filter repository.TradeFilter) ([]models.Trade, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.Trade{}).
		Where("user_id = ?", userID).
		Where("taken_at >= ?", from).
		Where("taken_at < ?", to)
	query = applyTradeFilter(query, filter)
	var items []models.Trade
	if err := query.Order("taken_at asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) HasDuplicateTrade(ctx context.Context, userID string, probe repository.DuplicateProbe) (bool, error) {
	if s == nil || s.db == nil {
		return false, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.Trade{}).
		Where("user_id = ?", userID).
		Where("symbol = ?", strings.ToUpper(strings.TrimSpace(probe.Symbol))).
		Where("side = ?", strings.ToLower(strings.TrimSpace(probe.Side))).
		Where("pnl = ?", probe.PnL)
	query = whereNullableTime(query, "taken_at", probe.TakenAt)
	query = whereNullableTime(query, "exit_at", probe.ExitAt)
	query = whereNullableDecimal(query, "entry_price", probe.EntryPrice)
	query = whereNullableDecimal(query, "exit_price", probe.ExitPrice)
	query = whereNullableInt(query, "contracts", probe.Contracts)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// --- Images -----------------------------------------------------------------

func (s *Store) InsertImage(ctx context.Context, item *models.Image) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetImage(ctx context.Context, userID, id string) (*models.Image, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Image
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetImageByKey(ctx context.Context, key string) (*models.Image, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Image
	err := s.db.WithContext(ctx).
		Where("s3_key = ?", key).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListImagesByTradeID(ctx context.Context, userID, tradeID string) ([]models.Image, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Image
	err := s.db.WithContext(ctx).
		Where("trade_id = ?", tradeID).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListTradeImageSummaries(ctx context.Context, userID string, tradeIDs []string) (map[string]repository.ImageSummary, error) {
	if s == nil || s.db == nil || len(tradeIDs) == 0 {
		return map[string]repository.ImageSummary{}, nil
	}
	var items []models.Image
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("trade_id IN ?", tradeIDs).
		Order("created_at asc").
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]repository.ImageSummary, len(tradeIDs))
	for _, img := range items {
		summary, ok := out[img.TradeID]
		if !ok {
			// First row per trade is the earliest-created image.
			summary = repository.ImageSummary{
				TradeID: img.TradeID,
				S3Key:   img.S3Key,
				Width:   img.Width,
				Height:  img.Height,
			}
		}
		summary.Count++
		out[img.TradeID] = summary
	}
	return out, nil
}

func (s *Store) DeleteImage(ctx context.Context, userID, id string) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Delete(&models.Image{}).Error
}

func (s *Store) DeleteImagesByTradeID(ctx context.Context, userID, tradeID string) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("trade_id = ?", tradeID).
		Where("user_id = ?", userID).
		Delete(&models.Image{}).Error
}

func (s *Store) ListOrphanImages(ctx context.Context, limit int) ([]models.Image, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	limit = normalizeLimit(limit, 200)
	var items []models.Image
	err := s.db.WithContext(ctx).
		Where("NOT EXISTS (SELECT 1 FROM trades WHERE trades.id = images.trade_id)").
		Order("created_at asc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- Analyses ---------------------------------------------------------------

func (s *Store) InsertAnalysis(ctx context.Context, item *models.Analysis) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) LatestAnalysisByTradeID(ctx context.Context, userID, tradeID string) (*models.Analysis, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Analysis
	err := s.db.WithContext(ctx).
		Where("trade_id = ?", tradeID).
		Where("user_id = ?", userID).
		Order("created_at desc").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) DeleteAnalysesByTradeID(ctx context.Context, userID, tradeID string) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("trade_id = ?", tradeID).
		Where("user_id = ?", userID).
		Delete(&models.Analysis{}).Error
}

func (s *Store) DeleteOrphanAnalyses(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("NOT EXISTS (SELECT 1 FROM trades WHERE trades.id = trade_analysis.trade_id)").
		Delete(&models.Analysis{})
	return res.RowsAffected, res.Error
}

// --- Accounts ---------------------------------------------------------------

func (s *Store) InsertAccount(ctx context.Context, item *models.Account) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetAccount(ctx context.Context, userID, id string) (*models.Account, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Account
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListAccounts(ctx context.Context, userID string) ([]models.Account, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Account
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- helpers ----------------------------------------------------------------

func applyTradeFilter(query *gorm.DB, filter repository.TradeFilter) *gorm.DB {
	if vals := cleanStrings(filter.Outcomes); len(vals) > 0 {
		query = query.Where("outcome IN ?", vals)
	}
	if vals := cleanStrings(filter.Sessions); len(vals) > 0 {
		query = query.Where("session IN ?", vals)
	}
	if vals := upperStrings(filter.Symbols); len(vals) > 0 {
		query = query.Where("symbol IN ?", vals)
	}
	// Contains-all: each strategy tag adds its own jsonb containment clause.
	for _, tag := range cleanStrings(filter.Strategies) {
		raw, _ := json.Marshal([]string{tag})
		query = query.Where("strategies @> ?", datatypes.JSON(raw))
	}
	return query
}

func whereNullableTime(query *gorm.DB, column string, v *time.Time) *gorm.DB {
	if v == nil {
		return query.Where(column + " IS NULL")
	}
	return query.Where(column+" = ?", *v)
}

func whereNullableDecimal(query *gorm.DB, column string, v *decimal.Decimal) *gorm.DB {
	if v == nil {
		return query.Where(column + " IS NULL")
	}
	return query.Where(column+" = ?", *v)
}

func whereNullableInt(query *gorm.DB, column string, v *int) *gorm.DB {
	if v == nil {
		return query.Where(column + " IS NULL")
	}
	return query.Where(column+" = ?", *v)
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	seen := map[string]struct{}{}
	for _, raw := range items {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		if _, ok := seen[val]; ok {
			continue
		}
		seen[val] = struct{}{}
		out = append(out, val)
	}
	return out
}

func upperStrings(items []string) []string {
	out := cleanStrings(items)
	for i := range out {
		out[i] = strings.ToUpper(out[i])
	}
	return out
}
