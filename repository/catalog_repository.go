package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/zoynulabedin/snowlightv2-sub000/model"
)

// ErrNotFound is returned when a catalog item does not exist.
var ErrNotFound = errors.New("catalog item not found")

// TrackRepository reads tracks from the catalog.
type TrackRepository interface {
	GetTrackByID(ctx context.Context, id string) (*model.Track, error)
	// GetTracksByIDs returns the tracks in the order of ids, skipping IDs
	// that do not exist.
	GetTracksByIDs(ctx context.Context, ids []string) ([]model.Track, error)
}

// VideoRepository reads videos from the catalog.
type VideoRepository interface {
	GetVideoByID(ctx context.Context, id string) (*model.Video, error)
}

// GormCatalogRepository implements TrackRepository and VideoRepository.
type GormCatalogRepository struct {
	db *gorm.DB
}

// NewGormCatalogRepository creates a catalog repository backed by db.
func NewGormCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

func (r *GormCatalogRepository) GetTrackByID(ctx context.Context, id string) (*model.Track, error) {
	var track model.Track
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&track).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get track %s: %w", id, err)
	}
	return &track, nil
}

func (r *GormCatalogRepository) GetTracksByIDs(ctx context.Context, ids []string) ([]model.Track, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []model.Track
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get tracks: %w", err)
	}
	return OrderByIDs(rows, ids), nil
}

func (r *GormCatalogRepository) GetVideoByID(ctx context.Context, id string) (*model.Video, error) {
	var video model.Video
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&video).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get video %s: %w", id, err)
	}
	return &video, nil
}

// OrderByIDs arranges rows in the order of ids. Unknown IDs are skipped and
// repeated IDs keep only their first position.
func OrderByIDs(rows []model.Track, ids []string) []model.Track {
	byID := make(map[string]model.Track, len(rows))
	for _, t := range rows {
		byID[t.ID] = t
	}

	out := make([]model.Track, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		t, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, t)
	}
	return out
}
