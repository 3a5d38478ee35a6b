package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"video_importer/internal/domain"
)

type Source interface {
	ID() string
	Name() string
	ListRecent(ctx context.Context, creds domain.Credentials) ([]domain.VideoCandidate, error)
	FetchDetail(ctx context.Context, apiKey, videoID string) (*domain.VideoDetail, error)
}

type ArticleStore interface {
	ExistsByMeta(ctx context.Context, key, value string) (bool, error)
	Create(ctx context.Context, article *domain.Article) (int64, error)
}

type CategoryStore interface {
	IDByName(ctx context.Context, name string) (*int64, error)
}

type SettingsReader interface {
	Get(ctx context.Context, key string) (string, error)
}

type CredentialsProvider interface {
	Credentials(ctx context.Context) (domain.Credentials, error)
}

type ImageImporter interface {
	Import(ctx context.Context, articleID int64, imageURL string) (*domain.MediaAsset, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, article *domain.Article) error
	Close() error
}

type RunStore interface {
	Record(ctx context.Context, summary *domain.RunSummary) error
}

type Locker interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}
