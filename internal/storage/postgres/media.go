package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"video_importer/internal/domain"
)

// MediaAssetStore persists media asset records; the binaries live in the
// media storage backend.
type MediaAssetStore struct {
	db *sqlx.DB
}

func NewMediaAssetStore(db *sqlx.DB) *MediaAssetStore {
	return &MediaAssetStore{db: db}
}

type mediaAssetRow struct {
	ID        int64     `db:"id"`
	ParentID  int64     `db:"parent_id"`
	Title     string    `db:"title"`
	FileName  string    `db:"file_name"`
	Path      string    `db:"path"`
	MimeType  string    `db:"mime_type"`
	Size      int64     `db:"size"`
	Width     int       `db:"width"`
	Height    int       `db:"height"`
	Variants  []byte    `db:"variants"`
	CreatedAt time.Time `db:"created_at"`
}

func (s *MediaAssetStore) Create(ctx context.Context, asset *domain.MediaAsset) (int64, error) {
	variants := asset.Variants
	if variants == nil {
		variants = []domain.ImageVariant{}
	}
	variantsJSON, err := json.Marshal(variants)
	if err != nil {
		return 0, fmt.Errorf("marshal variants: %w", err)
	}

	query := `
		INSERT INTO media_assets (
			parent_id, title, file_name, path, mime_type, size, width, height, variants
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
		RETURNING id, created_at`

	err = GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		asset.ParentID,
		asset.Title,
		asset.FileName,
		asset.Path,
		asset.MimeType,
		asset.Size,
		asset.Width,
		asset.Height,
		variantsJSON,
	).Scan(&asset.ID, &asset.CreatedAt)
	if err != nil {
		return 0, err
	}

	return asset.ID, nil
}

func (s *MediaAssetStore) Get(ctx context.Context, id int64) (*domain.MediaAsset, error) {
	var row mediaAssetRow
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &row, `
		SELECT id, parent_id, title, file_name, path, mime_type, size, width, height, variants, created_at
		FROM media_assets
		WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("media asset %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	asset := &domain.MediaAsset{
		ID:        row.ID,
		ParentID:  row.ParentID,
		Title:     row.Title,
		FileName:  row.FileName,
		Path:      row.Path,
		MimeType:  row.MimeType,
		Size:      row.Size,
		Width:     row.Width,
		Height:    row.Height,
		CreatedAt: row.CreatedAt,
	}
	if err := json.Unmarshal(row.Variants, &asset.Variants); err != nil {
		return nil, fmt.Errorf("unmarshal variants: %w", err)
	}
	return asset, nil
}
