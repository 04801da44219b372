package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/simonexlue/tradelens/internal/repository"
	"github.com/simonexlue/tradelens/internal/storage"
)

const reconcileBatchSize = 200

// ReconcileService sweeps rows left behind by best-effort cascades: image rows
// whose trade is gone (object deleted first, then the row) and analyses whose
// trade is gone.
type ReconcileService struct {
	repo   repository.Repository
	store  storage.ObjectStore
	logger *zap.Logger
}

func NewReconcileService(repo repository.Repository, store storage.ObjectStore, logger *zap.Logger) *ReconcileService {
	return &ReconcileService{repo: repo, store: store, logger: logger}
}

// Run performs one sweep. A failed object delete keeps its row so the next
// sweep retries it.
func (s *ReconcileService) Run(ctx context.Context) error {
	var swept, kept int
	for {
		images, err := s.repo.ListOrphanImages(ctx, reconcileBatchSize)
		if err != nil {
			return err
		}
		if len(images) == 0 {
			break
		}
		progressed := false
		for _, img := range images {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.store.Delete(ctx, img.S3Key); err != nil {
				s.logger.Warn("reconcile: object delete failed",
					zap.String("s3_key", img.S3Key), zap.Error(err))
				kept++
				continue
			}
			if err := s.repo.DeleteImage(ctx, img.UserID, img.ID); err != nil {
				s.logger.Warn("reconcile: row delete failed",
					zap.String("image_id", img.ID), zap.Error(err))
				kept++
				continue
			}
			swept++
			progressed = true
		}
		if !progressed || len(images) < reconcileBatchSize {
			break
		}
	}

	removed, err := s.repo.DeleteOrphanAnalyses(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("reconcile sweep complete",
		zap.Int("images_swept", swept),
		zap.Int("images_kept", kept),
		zap.Int64("analyses_removed", removed))
	return nil
}
