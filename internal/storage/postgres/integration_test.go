//go:build integration

package postgres

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"video_importer/internal/domain"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	db        *sqlx.DB
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := sqlx.Connect("postgres", connStr)
	s.Require().NoError(err)
	s.db = db

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	s.Require().NoError(Migrate(s.db, logger))
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, _ = s.db.ExecContext(s.ctx, "UPDATE articles SET featured_media_id = NULL")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM media_assets")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM article_meta")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM articles")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM categories")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM settings")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM sync_runs")
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}

func (s *PostgresIntegrationSuite) newArticle(videoID string) *domain.Article {
	return &domain.Article{
		Title:    "Episode 1",
		Body:     "Show notes here",
		Status:   domain.StatusDraft,
		AuthorID: 1,
		Meta: map[string]string{
			domain.MetaVideoID: videoID,
			domain.FieldIframe: `<iframe src="https://www.youtube.com/embed/` + videoID + `"></iframe>`,
		},
	}
}

func (s *PostgresIntegrationSuite) TestMigrate_Idempotent() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	s.NoError(Migrate(s.db, logger))
}

func (s *PostgresIntegrationSuite) TestArticleStore_CreateAndGet() {
	store := NewArticleStore(s.db)
	categoryID, err := NewCategoryStore(s.db).Ensure(s.ctx, "Podcast")
	s.Require().NoError(err)

	article := s.newArticle("abc123")
	article.CategoryID = &categoryID

	id, err := store.Create(s.ctx, article)
	s.Require().NoError(err)
	s.Greater(id, int64(0))
	s.Equal(id, article.ID)

	got, err := store.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("Episode 1", got.Title)
	s.Equal(domain.StatusDraft, got.Status)
	s.Equal(int64(1), got.AuthorID)
	s.Require().NotNil(got.CategoryID)
	s.Equal(categoryID, *got.CategoryID)
	s.Nil(got.FeaturedMediaID)
	s.Equal("abc123", got.Meta[domain.MetaVideoID])
	s.Contains(got.Meta[domain.FieldIframe], "abc123")
}

func (s *PostgresIntegrationSuite) TestArticleStore_ExistsByMeta() {
	store := NewArticleStore(s.db)

	exists, err := store.ExistsByMeta(s.ctx, domain.MetaVideoID, "abc123")
	s.NoError(err)
	s.False(exists)

	_, err = store.Create(s.ctx, s.newArticle("abc123"))
	s.Require().NoError(err)

	exists, err = store.ExistsByMeta(s.ctx, domain.MetaVideoID, "abc123")
	s.NoError(err)
	s.True(exists)

	exists, err = store.ExistsByMeta(s.ctx, domain.MetaVideoID, "other")
	s.NoError(err)
	s.False(exists)
}

func (s *PostgresIntegrationSuite) TestArticleStore_ExistsByMeta_AnyStatus() {
	store := NewArticleStore(s.db)

	article := s.newArticle("pub1")
	article.Status = domain.StatusPublish
	_, err := store.Create(s.ctx, article)
	s.Require().NoError(err)

	exists, err := store.ExistsByMeta(s.ctx, domain.MetaVideoID, "pub1")
	s.NoError(err)
	s.True(exists)
}

func (s *PostgresIntegrationSuite) TestArticleStore_DuplicateVideoIDRejected() {
	store := NewArticleStore(s.db)
	tm := NewTransactionManager(s.db)

	_, err := store.Create(s.ctx, s.newArticle("abc123"))
	s.Require().NoError(err)

	err = tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		_, err := store.Create(ctx, s.newArticle("abc123"))
		return err
	})
	s.ErrorIs(err, domain.ErrDuplicate)

	n, err := store.CountByMeta(s.ctx, domain.MetaVideoID, "abc123")
	s.NoError(err)
	s.Equal(1, n)

	var articles int
	s.NoError(s.db.GetContext(s.ctx, &articles, "SELECT COUNT(*) FROM articles"))
	s.Equal(1, articles)
}

func (s *PostgresIntegrationSuite) TestArticleStore_SetMetaReplaces() {
	store := NewArticleStore(s.db)

	id, err := store.Create(s.ctx, s.newArticle("abc123"))
	s.Require().NoError(err)

	s.NoError(store.SetMeta(s.ctx, id, domain.FieldIframe, "replaced"))

	got, err := store.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("replaced", got.Meta[domain.FieldIframe])
}

func (s *PostgresIntegrationSuite) TestArticleStore_Get_NotFound() {
	_, err := NewArticleStore(s.db).Get(s.ctx, 999999)
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *PostgresIntegrationSuite) TestCategoryStore_IDByName() {
	store := NewCategoryStore(s.db)

	id, err := store.IDByName(s.ctx, "Podcast")
	s.NoError(err)
	s.Nil(id)

	created, err := store.Ensure(s.ctx, "Podcast")
	s.Require().NoError(err)

	again, err := store.Ensure(s.ctx, "Podcast")
	s.Require().NoError(err)
	s.Equal(created, again)

	id, err = store.IDByName(s.ctx, "Podcast")
	s.NoError(err)
	s.Require().NotNil(id)
	s.Equal(created, *id)
}

func (s *PostgresIntegrationSuite) TestMediaAssetStore_CreateAndFeature() {
	articles := NewArticleStore(s.db)
	media := NewMediaAssetStore(s.db)

	articleID, err := articles.Create(s.ctx, s.newArticle("abc123"))
	s.Require().NoError(err)

	asset := &domain.MediaAsset{
		ParentID: articleID,
		Title:    "hqdefault.jpg",
		FileName: "hqdefault.jpg",
		Path:     "2024/08/hqdefault.jpg",
		MimeType: "image/jpeg",
		Size:     1234,
		Width:    480,
		Height:   360,
		Variants: []domain.ImageVariant{
			{Name: "thumbnail", FileName: "hqdefault-150x113.jpg", Width: 150, Height: 113},
		},
	}
	assetID, err := media.Create(s.ctx, asset)
	s.Require().NoError(err)
	s.Greater(assetID, int64(0))

	s.Require().NoError(articles.SetFeaturedImage(s.ctx, articleID, assetID))

	got, err := articles.Get(s.ctx, articleID)
	s.Require().NoError(err)
	s.Require().NotNil(got.FeaturedMediaID)
	s.Equal(assetID, *got.FeaturedMediaID)

	stored, err := media.Get(s.ctx, assetID)
	s.Require().NoError(err)
	s.Equal(articleID, stored.ParentID)
	s.Equal("image/jpeg", stored.MimeType)
	s.Len(stored.Variants, 1)
	s.Equal("thumbnail", stored.Variants[0].Name)
}

func (s *PostgresIntegrationSuite) TestArticleStore_SetFeaturedImage_MissingArticle() {
	err := NewArticleStore(s.db).SetFeaturedImage(s.ctx, 999999, 1)
	s.Error(err)
}

func (s *PostgresIntegrationSuite) TestSettingsStore() {
	store := NewSettingsStore(s.db)

	v, err := store.Get(s.ctx, domain.SettingAPIKey)
	s.NoError(err)
	s.Equal("", v)

	s.NoError(store.Set(s.ctx, domain.SettingAPIKey, "first"))
	s.NoError(store.Set(s.ctx, domain.SettingAPIKey, "second"))

	v, err = store.Get(s.ctx, domain.SettingAPIKey)
	s.NoError(err)
	s.Equal("second", v)
}

func (s *PostgresIntegrationSuite) TestRunStore_RecordAndRecent() {
	store := NewRunStore(s.db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	older := &domain.RunSummary{
		ID:         uuid.NewString(),
		Trigger:    domain.TriggerScheduled,
		Status:     domain.RunEmpty,
		StartedAt:  now.Add(-time.Hour),
		FinishedAt: now.Add(-time.Hour).Add(time.Second),
	}
	newer := &domain.RunSummary{
		ID:         uuid.NewString(),
		Trigger:    domain.TriggerManual,
		Status:     domain.RunCompleted,
		StartedAt:  now,
		FinishedAt: now.Add(2 * time.Second),
		Listed:     1,
		Imported:   1,
		Items: []domain.ItemResult{
			{VideoID: "abc123", Outcome: domain.OutcomeImported, ArticleID: 7, FeaturedImage: true},
		},
	}

	s.Require().NoError(store.Record(s.ctx, older))
	s.Require().NoError(store.Record(s.ctx, newer))

	runs, err := store.Recent(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(runs, 2)
	s.Equal(newer.ID, runs[0].ID)
	s.Equal(domain.TriggerManual, runs[0].Trigger)
	s.Equal(domain.RunCompleted, runs[0].Status)
	s.Equal(1, runs[0].Imported)
	s.Require().Len(runs[0].Items, 1)
	s.Equal("abc123", runs[0].Items[0].VideoID)
	s.Empty(runs[1].Items)

	runs, err = store.Recent(s.ctx, 1)
	s.NoError(err)
	s.Len(runs, 1)
}

func (s *PostgresIntegrationSuite) TestTransaction_Rollback() {
	tm := NewTransactionManager(s.db)
	store := NewArticleStore(s.db)

	err := tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		if _, err := store.Create(ctx, s.newArticle("rollback1")); err != nil {
			return err
		}
		return context.Canceled
	})
	s.Error(err)

	exists, err := store.ExistsByMeta(s.ctx, domain.MetaVideoID, "rollback1")
	s.NoError(err)
	s.False(exists)
}
