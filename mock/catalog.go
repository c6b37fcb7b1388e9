package mock

import (
	"context"

	"github.com/zoynulabedin/snowlightv2-sub000/model"
	"github.com/zoynulabedin/snowlightv2-sub000/repository"
)

var _ repository.TrackRepository = &TrackRepository{}

type TrackRepository struct {
	GetTrackByIDFn   func(ctx context.Context, id string) (*model.Track, error)
	GetTracksByIDsFn func(ctx context.Context, ids []string) ([]model.Track, error)
}

func (r *TrackRepository) GetTrackByID(ctx context.Context, id string) (*model.Track, error) {
	return r.GetTrackByIDFn(ctx, id)
}

func (r *TrackRepository) GetTracksByIDs(ctx context.Context, ids []string) ([]model.Track, error) {
	return r.GetTracksByIDsFn(ctx, ids)
}

var _ repository.VideoRepository = &VideoRepository{}

type VideoRepository struct {
	GetVideoByIDFn func(ctx context.Context, id string) (*model.Video, error)
}

func (r *VideoRepository) GetVideoByID(ctx context.Context, id string) (*model.Video, error) {
	return r.GetVideoByIDFn(ctx, id)
}
