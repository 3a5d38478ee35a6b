package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"video_importer/internal/domain"
)

type ArticleStore struct {
	db *sqlx.DB
}

func NewArticleStore(db *sqlx.DB) *ArticleStore {
	return &ArticleStore{db: db}
}

type articleRow struct {
	ID              int64         `db:"id"`
	Title           string        `db:"title"`
	Body            string        `db:"body"`
	Status          string        `db:"status"`
	AuthorID        int64         `db:"author_id"`
	CategoryID      sql.NullInt64 `db:"category_id"`
	FeaturedMediaID sql.NullInt64 `db:"featured_media_id"`
	CreatedAt       time.Time     `db:"created_at"`
}

// ExistsByMeta reports whether any article, in any status, carries key=value.
func (s *ArticleStore) ExistsByMeta(ctx context.Context, key, value string) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &exists,
		`SELECT EXISTS (SELECT 1 FROM article_meta WHERE meta_key = $1 AND meta_value = $2)`,
		key, value,
	)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// Create inserts the article and its meta rows and returns the new id. A meta
// row that collides with a unique index yields domain.ErrDuplicate.
func (s *ArticleStore) Create(ctx context.Context, article *domain.Article) (int64, error) {
	exec := GetExecutor(ctx, s.db)

	query := `
		INSERT INTO articles (title, body, status, author_id, category_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	var categoryID sql.NullInt64
	if article.CategoryID != nil {
		categoryID = sql.NullInt64{Int64: *article.CategoryID, Valid: true}
	}

	var id int64
	var createdAt time.Time
	err := exec.QueryRowxContext(ctx, query,
		article.Title,
		article.Body,
		article.Status,
		article.AuthorID,
		categoryID,
	).Scan(&id, &createdAt)
	if err != nil {
		return 0, fmt.Errorf("insert article: %w", err)
	}

	keys := make([]string, 0, len(article.Meta))
	for k := range article.Meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := s.SetMeta(ctx, id, k, article.Meta[k]); err != nil {
			return 0, err
		}
	}

	article.ID = id
	article.CreatedAt = createdAt
	return id, nil
}

// SetMeta inserts or replaces a single metadata or custom-field value.
func (s *ArticleStore) SetMeta(ctx context.Context, articleID int64, key, value string) error {
	query := `
		INSERT INTO article_meta (article_id, meta_key, meta_value)
		VALUES ($1, $2, $3)
		ON CONFLICT (article_id, meta_key) DO UPDATE SET meta_value = EXCLUDED.meta_value`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, articleID, key, value)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s=%s", domain.ErrDuplicate, key, value)
	}
	if err != nil {
		return fmt.Errorf("set meta %s: %w", key, err)
	}
	return nil
}

func (s *ArticleStore) SetFeaturedImage(ctx context.Context, articleID, mediaID int64) error {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		`UPDATE articles SET featured_media_id = $2 WHERE id = $1`,
		articleID, mediaID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("article %d: %w", articleID, domain.ErrNotFound)
	}
	return nil
}

func (s *ArticleStore) Get(ctx context.Context, id int64) (*domain.Article, error) {
	exec := GetExecutor(ctx, s.db)

	var row articleRow
	err := sqlx.GetContext(ctx, exec, &row, `
		SELECT id, title, body, status, author_id, category_id, featured_media_id, created_at
		FROM articles
		WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("article %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	article := &domain.Article{
		ID:        row.ID,
		Title:     row.Title,
		Body:      row.Body,
		Status:    row.Status,
		AuthorID:  row.AuthorID,
		CreatedAt: row.CreatedAt,
		Meta:      make(map[string]string),
	}
	if row.CategoryID.Valid {
		article.CategoryID = &row.CategoryID.Int64
	}
	if row.FeaturedMediaID.Valid {
		article.FeaturedMediaID = &row.FeaturedMediaID.Int64
	}

	rows, err := exec.QueryContext(ctx,
		`SELECT meta_key, meta_value FROM article_meta WHERE article_id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		article.Meta[k] = v
	}

	return article, rows.Err()
}

// CountByMeta returns how many articles carry key=value.
func (s *ArticleStore) CountByMeta(ctx context.Context, key, value string) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &n,
		`SELECT COUNT(*) FROM article_meta WHERE meta_key = $1 AND meta_value = $2`,
		key, value,
	)
	return n, err
}
