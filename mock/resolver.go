package mock

import (
	"context"

	"github.com/zoynulabedin/snowlightv2-sub000/model"
	"github.com/zoynulabedin/snowlightv2-sub000/server"
)

var _ server.MediaResolver = &MediaResolver{}

type MediaResolver struct {
	ResolveTrackFn func(ctx context.Context, t *model.Track) error
	ResolveVideoFn func(ctx context.Context, v *model.Video) error
}

func (r *MediaResolver) ResolveTrack(ctx context.Context, t *model.Track) error {
	return r.ResolveTrackFn(ctx, t)
}

func (r *MediaResolver) ResolveVideo(ctx context.Context, v *model.Video) error {
	return r.ResolveVideoFn(ctx, v)
}
