package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simonexlue/tradelens/internal/models"
	"github.com/simonexlue/tradelens/internal/repository"
	"github.com/simonexlue/tradelens/internal/storage"
)

// stubRepo is an in-memory Repository with the same visibility rules as the
// real store: scoped lookups that miss return (nil, nil).
type stubRepo struct {
	trades   []*models.Trade
	images   []*models.Image
	analyses []*models.Analysis
	accounts []*models.Account

	insertTradeErr error
}

func (r *stubRepo) InsertTrade(_ context.Context, item *models.Trade) error {
	if r.insertTradeErr != nil {
		return r.insertTradeErr
	}
	cp := *item
	r.trades = append(r.trades, &cp)
	return nil
}

func (r *stubRepo) GetTrade(_ context.Context, userID, id string) (*models.Trade, error) {
	for _, t := range r.trades {
		if t.ID == id && t.UserID == userID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *stubRepo) GetTradeOwner(_ context.Context, id string) (string, error) {
	for _, t := range r.trades {
		if t.ID == id {
			return t.UserID, nil
		}
	}
	return "", nil
}

func (r *stubRepo) UpdateTradeFields(_ context.Context, userID, id string, updates map[string]any) error {
	for _, t := range r.trades {
		if t.ID != id || t.UserID != userID {
			continue
		}
		for col, val := range updates {
			applyTradeColumn(t, col, val)
		}
	}
	return nil
}

func (r *stubRepo) DeleteTrade(_ context.Context, userID, id string) error {
	kept := r.trades[:0]
	for _, t := range r.trades {
		if t.ID == id && t.UserID == userID {
			continue
		}
		kept = append(kept, t)
	}
	r.trades = kept
	return nil
}

func (r *stubRepo) ListTrades(_ context.Context, params repository.ListTradesParams) ([]models.Trade, error) {
	var matched []models.Trade
	for _, t := range r.trades {
		if t.UserID != params.UserID || !matchesFilter(t, params.Filter) {
			continue
		}
		if params.Seek != nil {
			after := t.SortAt.Before(params.Seek.SortAt) ||
				(t.SortAt.Equal(params.Seek.SortAt) && t.ID < params.Seek.ID)
			if !after {
				continue
			}
		}
		matched = append(matched, *t)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].SortAt.Equal(matched[j].SortAt) {
			return matched[i].SortAt.After(matched[j].SortAt)
		}
		return matched[i].ID > matched[j].ID
	})
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *stubRepo) ListTradesBetween(_ context.Context, userID string, from, to time.Time, filter repository.TradeFilter) ([]models.Trade, error) {
	var matched []models.Trade
	for _, t := range r.trades {
		if t.UserID != userID || !matchesFilter(t, filter) {
			continue
		}
		if t.TakenAt.Before(from) || !t.TakenAt.Before(to) {
			continue
		}
		matched = append(matched, *t)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].TakenAt.Before(matched[j].TakenAt) })
	return matched, nil
}

func (r *stubRepo) HasDuplicateTrade(_ context.Context, userID string, probe repository.DuplicateProbe) (bool, error) {
	symbol := strings.ToUpper(strings.TrimSpace(probe.Symbol))
	side := strings.ToLower(strings.TrimSpace(probe.Side))
	for _, t := range r.trades {
		if t.UserID != userID || t.Symbol != symbol {
			continue
		}
		if t.Side == nil || *t.Side != side {
			continue
		}
		if t.PnL == nil || !t.PnL.Equal(probe.PnL) {
			continue
		}
		if probe.TakenAt == nil || !t.TakenAt.Equal(*probe.TakenAt) {
			continue
		}
		if !eqTimePtr(t.ExitAt, probe.ExitAt) {
			continue
		}
		if !eqDecPtr(t.EntryPrice, probe.EntryPrice) || !eqDecPtr(t.ExitPrice, probe.ExitPrice) {
			continue
		}
		if !eqIntPtr(t.Contracts, probe.Contracts) {
			continue
		}
		return true, nil
	}
	return false, nil
}

func (r *stubRepo) InsertImage(_ context.Context, item *models.Image) error {
	cp := *item
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	r.images = append(r.images, &cp)
	return nil
}

func (r *stubRepo) GetImage(_ context.Context, userID, id string) (*models.Image, error) {
	for _, img := range r.images {
		if img.ID == id && img.UserID == userID {
			cp := *img
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *stubRepo) GetImageByKey(_ context.Context, key string) (*models.Image, error) {
	for _, img := range r.images {
		if img.S3Key == key {
			cp := *img
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *stubRepo) ListImagesByTradeID(_ context.Context, userID, tradeID string) ([]models.Image, error) {
	var out []models.Image
	for _, img := range r.images {
		if img.TradeID == tradeID && img.UserID == userID {
			out = append(out, *img)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *stubRepo) ListTradeImageSummaries(ctx context.Context, userID string, tradeIDs []string) (map[string]repository.ImageSummary, error) {
	out := map[string]repository.ImageSummary{}
	for _, tradeID := range tradeIDs {
		images, _ := r.ListImagesByTradeID(ctx, userID, tradeID)
		if len(images) == 0 {
			continue
		}
		first := images[0]
		out[tradeID] = repository.ImageSummary{
			TradeID: tradeID,
			S3Key:   first.S3Key,
			Width:   first.Width,
			Height:  first.Height,
			Count:   len(images),
		}
	}
	return out, nil
}

func (r *stubRepo) DeleteImage(_ context.Context, userID, id string) error {
	kept := r.images[:0]
	for _, img := range r.images {
		if img.ID == id && img.UserID == userID {
			continue
		}
		kept = append(kept, img)
	}
	r.images = kept
	return nil
}

func (r *stubRepo) DeleteImagesByTradeID(_ context.Context, userID, tradeID string) error {
	kept := r.images[:0]
	for _, img := range r.images {
		if img.TradeID == tradeID && img.UserID == userID {
			continue
		}
		kept = append(kept, img)
	}
	r.images = kept
	return nil
}

func (r *stubRepo) ListOrphanImages(_ context.Context, limit int) ([]models.Image, error) {
	var out []models.Image
	for _, img := range r.images {
		if owner, _ := r.GetTradeOwner(context.Background(), img.TradeID); owner == "" {
			out = append(out, *img)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *stubRepo) InsertAnalysis(_ context.Context, item *models.Analysis) error {
	cp := *item
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	r.analyses = append(r.analyses, &cp)
	return nil
}

func (r *stubRepo) LatestAnalysisByTradeID(_ context.Context, userID, tradeID string) (*models.Analysis, error) {
	var latest *models.Analysis
	for _, a := range r.analyses {
		if a.TradeID != tradeID || a.UserID != userID {
			continue
		}
		if latest == nil || a.CreatedAt.After(latest.CreatedAt) {
			latest = a
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (r *stubRepo) DeleteAnalysesByTradeID(_ context.Context, userID, tradeID string) error {
	kept := r.analyses[:0]
	for _, a := range r.analyses {
		if a.TradeID == tradeID && a.UserID == userID {
			continue
		}
		kept = append(kept, a)
	}
	r.analyses = kept
	return nil
}

func (r *stubRepo) DeleteOrphanAnalyses(_ context.Context) (int64, error) {
	var removed int64
	kept := r.analyses[:0]
	for _, a := range r.analyses {
		if owner, _ := r.GetTradeOwner(context.Background(), a.TradeID); owner == "" {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	r.analyses = kept
	return removed, nil
}

func (r *stubRepo) InsertAccount(_ context.Context, item *models.Account) error {
	cp := *item
	r.accounts = append(r.accounts, &cp)
	return nil
}

func (r *stubRepo) GetAccount(_ context.Context, userID, id string) (*models.Account, error) {
	for _, a := range r.accounts {
		if a.ID == id && a.UserID == userID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *stubRepo) ListAccounts(_ context.Context, userID string) ([]models.Account, error) {
	var out []models.Account
	for _, a := range r.accounts {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func matchesFilter(t *models.Trade, filter repository.TradeFilter) bool {
	if len(filter.Outcomes) > 0 {
		if t.Outcome == nil || !containsString(filter.Outcomes, *t.Outcome) {
			return false
		}
	}
	if len(filter.Sessions) > 0 {
		if t.Session == nil || !containsString(filter.Sessions, *t.Session) {
			return false
		}
	}
	if len(filter.Symbols) > 0 {
		upper := make([]string, len(filter.Symbols))
		for i, s := range filter.Symbols {
			upper[i] = strings.ToUpper(s)
		}
		if !containsString(upper, t.Symbol) {
			return false
		}
	}
	if len(filter.Strategies) > 0 {
		var tags []string
		_ = json.Unmarshal(t.Strategies, &tags)
		for _, want := range filter.Strategies {
			if !containsString(tags, want) {
				return false
			}
		}
	}
	return true
}

func applyTradeColumn(t *models.Trade, col string, val any) {
	switch col {
	case "note":
		t.Note = val.(string)
	case "taken_at":
		t.TakenAt = val.(time.Time)
	case "sort_at":
		t.SortAt = val.(time.Time)
	case "exit_at":
		v := val.(time.Time)
		t.ExitAt = &v
	case "session":
		v := val.(string)
		t.Session = &v
	case "outcome":
		t.Outcome = val.(*string)
	case "side":
		t.Side = val.(*string)
	case "symbol":
		t.Symbol = val.(string)
	case "pnl":
		v := val.(decimal.Decimal)
		t.PnL = &v
	case "entry_price":
		v := val.(decimal.Decimal)
		t.EntryPrice = &v
	case "exit_price":
		v := val.(decimal.Decimal)
		t.ExitPrice = &v
	case "contracts":
		v := val.(int)
		t.Contracts = &v
	case "account_id":
		v := val.(string)
		t.AccountID = &v
	}
}

func containsString(items []string, want string) bool {
	for _, item := range items {
		if item == want {
			return true
		}
	}
	return false
}

func eqTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func eqDecPtr(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func eqIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// stubStore is an in-memory ObjectStore tracking calls.
type stubStore struct {
	objects    map[string][]byte
	deleted    []string
	presigned  []string
	getErr     error
	deleteErr  error
	presignErr error
}

func newStubStore() *stubStore {
	return &stubStore{objects: map[string][]byte{}}
}

func (s *stubStore) PresignPut(_ context.Context, key, _ string) (string, error) {
	if s.presignErr != nil {
		return "", s.presignErr
	}
	s.presigned = append(s.presigned, key)
	return "https://example.test/upload/" + key, nil
}

func (s *stubStore) Get(_ context.Context, key string) (*storage.Object, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return &storage.Object{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentType:   "image/png",
		ContentLength: int64(len(data)),
	}, nil
}

func (s *stubStore) Delete(_ context.Context, key string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, key)
	delete(s.objects, key)
	return nil
}
