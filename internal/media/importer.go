package media

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"video_importer/internal/domain"
)

type Fetcher interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

type AssetStore interface {
	Create(ctx context.Context, asset *domain.MediaAsset) (int64, error)
}

type FeaturedImageSetter interface {
	SetFeaturedImage(ctx context.Context, articleID, mediaID int64) error
}

// Importer downloads a remote image into the media storage and makes it the
// featured image of an article.
type Importer struct {
	fetcher  Fetcher
	storage  Storage
	assets   AssetStore
	articles FeaturedImageSetter
	sizes    []Size
	now      func() time.Time
	logger   *slog.Logger
}

func NewImporter(
	fetcher Fetcher,
	storage Storage,
	assets AssetStore,
	articles FeaturedImageSetter,
	logger *slog.Logger,
) *Importer {
	return &Importer{
		fetcher:  fetcher,
		storage:  storage,
		assets:   assets,
		articles: articles,
		sizes:    DefaultSizes,
		now:      time.Now,
		logger:   logger.With("component", "featured_image"),
	}
}

// Import attaches the image at imageURL to the article. Errors wrap
// domain.ErrImageDownload or domain.ErrImageAttach; the article itself is
// never modified except for its featured image reference.
func (im *Importer) Import(ctx context.Context, articleID int64, imageURL string) (*domain.MediaAsset, error) {
	logger := im.logger.With("article_id", articleID, "image_url", imageURL)
	logger.Debug("importing featured image")

	data, err := im.fetcher.Download(ctx, imageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrImageDownload, err)
	}

	dir := im.now().UTC().Format("2006/01")
	fileName, err := UniqueFileName(ctx, im.storage, dir, FileNameFromURL(imageURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrImageAttach, err)
	}

	key := path.Join(dir, fileName)
	mimeType := DetectMIME(data, fileName)
	if err := im.storage.Put(ctx, key, data, mimeType); err != nil {
		return nil, fmt.Errorf("%w: store %s: %w", domain.ErrImageAttach, key, err)
	}

	asset := &domain.MediaAsset{
		ParentID: articleID,
		Title:    fileName,
		FileName: fileName,
		Path:     key,
		MimeType: mimeType,
		Size:     int64(len(data)),
	}

	if strings.HasPrefix(mimeType, "image/") {
		asset.Width, asset.Height, asset.Variants = im.derive(ctx, logger, dir, fileName, data)
	}

	assetID, err := im.assets.Create(ctx, asset)
	if err != nil {
		return nil, fmt.Errorf("%w: create media asset: %w", domain.ErrImageAttach, err)
	}

	if err := im.articles.SetFeaturedImage(ctx, articleID, assetID); err != nil {
		return nil, fmt.Errorf("%w: set featured image: %w", domain.ErrImageAttach, err)
	}

	logger.Info("featured image set", "media_id", assetID, "path", key, "variants", len(asset.Variants))
	return asset, nil
}

// derive computes dimensions and stores size variants. Failures here leave the
// asset without derived metadata rather than failing the import.
func (im *Importer) derive(ctx context.Context, logger *slog.Logger, dir, fileName string, data []byte) (int, int, []domain.ImageVariant) {
	width, height, _, err := Dimensions(data)
	if err != nil {
		logger.Warn("cannot read image dimensions", "error", err)
		return 0, 0, nil
	}

	variants, err := GenerateVariants(data, fileName, im.sizes)
	if err != nil {
		logger.Warn("cannot generate image variants", "error", err)
		return width, height, nil
	}

	stored := make([]domain.ImageVariant, 0, len(variants))
	for _, v := range variants {
		name, err := UniqueFileName(ctx, im.storage, dir, v.FileName)
		if err != nil {
			logger.Warn("cannot name image variant", "variant", v.Name, "error", err)
			continue
		}
		key := path.Join(dir, name)
		if err := im.storage.Put(ctx, key, v.Data, DetectMIME(v.Data, name)); err != nil {
			logger.Warn("cannot store image variant", "variant", v.Name, "error", err)
			continue
		}
		stored = append(stored, domain.ImageVariant{
			Name:     v.Name,
			FileName: name,
			Width:    v.Width,
			Height:   v.Height,
		})
	}

	return width, height, stored
}
