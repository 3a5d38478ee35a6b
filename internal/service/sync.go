package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"video_importer/internal/config"
	"video_importer/internal/domain"
	"video_importer/internal/metrics"
)

type SyncService struct {
	source      Source
	credentials CredentialsProvider
	articles    ArticleStore
	categories  CategoryStore
	images      ImageImporter
	txManager   TransactionManager
	publisher   Publisher
	runs        RunStore
	lock        Locker
	builder     *articleBuilder
	logger      *slog.Logger
	config      config.SyncConfig
	now         func() time.Time
}

// NewSyncService wires the run. publisher and runs may be nil.
func NewSyncService(
	source Source,
	credentials CredentialsProvider,
	articles ArticleStore,
	categories CategoryStore,
	images ImageImporter,
	txManager TransactionManager,
	publisher Publisher,
	runs RunStore,
	lock Locker,
	logger *slog.Logger,
	cfg config.SyncConfig,
) *SyncService {
	return &SyncService{
		source:      source,
		credentials: credentials,
		articles:    articles,
		categories:  categories,
		images:      images,
		txManager:   txManager,
		publisher:   publisher,
		runs:        runs,
		lock:        lock,
		builder:     newArticleBuilder(cfg.AuthorID),
		logger:      logger.With("source", source.ID()),
		config:      cfg,
		now:         time.Now,
	}
}

// Sync performs one import run. It returns domain.ErrRunInProgress without
// side effects when another run holds the lock. Errors that abort the run
// (missing configuration, listing failure) are returned together with the
// aborted summary; per-item failures are only reported in the summary.
func (s *SyncService) Sync(ctx context.Context, trigger domain.Trigger) (*domain.RunSummary, error) {
	acquired, err := s.lock.TryLock(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !acquired {
		metrics.RecordRejected(trigger)
		s.logger.Warn("sync skipped, another run is in progress", "trigger", trigger)
		return nil, domain.ErrRunInProgress
	}
	defer func() {
		if err := s.lock.Unlock(context.WithoutCancel(ctx)); err != nil {
			s.logger.Error("failed to release run lock", "error", err)
		}
	}()

	if s.config.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.RunTimeout)
		defer cancel()
	}

	summary := &domain.RunSummary{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		StartedAt: s.now().UTC(),
		Items:     []domain.ItemResult{},
	}
	logger := s.logger.With("run_id", summary.ID, "trigger", trigger)

	runErr := s.run(ctx, logger, summary)

	summary.FinishedAt = s.now().UTC()
	if runErr != nil {
		summary.Status = domain.RunAborted
		summary.Error = runErr.Error()
		logger.Error("sync aborted", "error", runErr, "duration", summary.Duration())
	} else {
		logger.Info("sync completed",
			"status", summary.Status,
			"listed", summary.Listed,
			"imported", summary.Imported,
			"skipped", summary.Skipped,
			"failed", summary.Failed,
			"image_failures", summary.ImageFailures,
			"published", summary.Published,
			"duration", summary.Duration(),
		)
	}

	metrics.RecordRun(summary)
	s.record(ctx, logger, summary)

	return summary, runErr
}

func (s *SyncService) run(ctx context.Context, logger *slog.Logger, summary *domain.RunSummary) error {
	creds, err := s.credentials.Credentials(ctx)
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}
	if !creds.Complete() {
		logger.Error("api key or channel id not configured",
			"has_api_key", creds.APIKey != "",
			"has_channel_id", creds.ChannelID != "",
		)
		return domain.ErrConfigurationMissing
	}

	logger.Info("starting sync", "source_name", s.source.Name(), "channel_id", creds.ChannelID, "cutoff", s.config.Cutoff)

	videos, err := s.source.ListRecent(ctx, creds)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrListing, err)
	}

	summary.Listed = len(videos)
	if len(videos) == 0 {
		logger.Info("no videos found")
		summary.Status = domain.RunEmpty
		return nil
	}
	logger.Info("listed channel videos", "count", len(videos))

	for _, video := range videos {
		result, article := s.processVideo(ctx, logger.With("video_id", video.ID), creds, video)
		summary.Add(result)

		if article != nil && s.publisher != nil {
			if err := s.publisher.Publish(ctx, article); err != nil {
				metrics.RecordPublishError()
				logger.Error("failed to publish article", "video_id", video.ID, "article_id", article.ID, "error", err)
			} else {
				summary.Published++
			}
		}
	}

	summary.Status = domain.RunCompleted
	return nil
}

// processVideo runs the per-item pipeline. The returned article is non-nil
// only when one was created.
func (s *SyncService) processVideo(
	ctx context.Context,
	logger *slog.Logger,
	creds domain.Credentials,
	video domain.VideoCandidate,
) (domain.ItemResult, *domain.Article) {
	result := domain.ItemResult{VideoID: video.ID, Title: video.Title}

	if !video.PublishedAfter(s.config.Cutoff) {
		logger.Info("skipping video published before cutoff", "published_at", video.PublishedAt)
		result.Outcome = domain.OutcomeSkipped
		result.Reason = domain.ReasonBeforeCutoff
		return result, nil
	}

	exists, err := s.articles.ExistsByMeta(ctx, domain.MetaVideoID, video.ID)
	if err != nil {
		logger.Error("failed to check for existing article", "error", err)
		return failed(result, domain.ReasonDuplicateCheck, err), nil
	}
	if exists {
		logger.Info("skipping video, article already exists")
		result.Outcome = domain.OutcomeSkipped
		result.Reason = domain.ReasonDuplicate
		return result, nil
	}

	detail, err := s.source.FetchDetail(ctx, creds.APIKey, video.ID)
	if err != nil {
		logger.Error("failed to fetch video detail", "error", err)
		return failed(result, domain.ReasonDetailUnavailable, err), nil
	}

	article, err := s.createArticle(ctx, logger, video, detail)
	if errors.Is(err, domain.ErrDuplicate) {
		logger.Info("skipping video, article created concurrently")
		result.Outcome = domain.OutcomeSkipped
		result.Reason = domain.ReasonDuplicate
		return result, nil
	}
	if err != nil {
		logger.Error("failed to create article", "error", err)
		return failed(result, domain.ReasonCreateFailed, err), nil
	}

	logger = logger.With("article_id", article.ID)
	logger.Info("created draft article")

	result.Outcome = domain.OutcomeImported
	result.ArticleID = article.ID

	asset, err := s.images.Import(ctx, article.ID, video.ThumbnailURL)
	if err != nil {
		logger.Error("failed to set featured image", "thumbnail_url", video.ThumbnailURL, "error", err)
		result.Error = err.Error()
		return result, article
	}

	article.FeaturedMediaID = &asset.ID
	result.FeaturedImage = true
	return result, article
}

func (s *SyncService) createArticle(
	ctx context.Context,
	logger *slog.Logger,
	video domain.VideoCandidate,
	detail *domain.VideoDetail,
) (*domain.Article, error) {
	categoryID, err := s.categories.IDByName(ctx, s.config.Category)
	if err != nil {
		logger.Warn("failed to resolve category, article stays uncategorized", "category", s.config.Category, "error", err)
		categoryID = nil
	} else if categoryID == nil {
		logger.Warn("category not found, article stays uncategorized", "category", s.config.Category)
	}

	article := s.builder.Build(video, detail, categoryID)

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		id, err := s.articles.Create(txCtx, article)
		if err != nil {
			return err
		}
		article.ID = id
		return nil
	})
	if errors.Is(err, domain.ErrDuplicate) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCreate, err)
	}

	return article, nil
}

func (s *SyncService) record(ctx context.Context, logger *slog.Logger, summary *domain.RunSummary) {
	if s.runs == nil {
		return
	}
	if err := s.runs.Record(context.WithoutCancel(ctx), summary); err != nil {
		logger.Error("failed to record run", "error", err)
	}
}

func failed(result domain.ItemResult, reason string, err error) domain.ItemResult {
	result.Outcome = domain.OutcomeFailed
	result.Reason = reason
	result.Error = err.Error()
	return result
}
