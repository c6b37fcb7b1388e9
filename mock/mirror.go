package mock

import (
	"context"

	"github.com/zoynulabedin/snowlightv2-sub000/player"
	"github.com/zoynulabedin/snowlightv2-sub000/server"
)

var _ server.Mirror = &Mirror{}

type Mirror struct {
	SaveFn   func(ctx context.Context, sessionID string, state player.SessionState) error
	LoadFn   func(ctx context.Context, sessionID string) (*player.SessionState, error)
	DeleteFn func(ctx context.Context, sessionID string) error
}

func (m *Mirror) Save(ctx context.Context, sessionID string, state player.SessionState) error {
	return m.SaveFn(ctx, sessionID, state)
}

func (m *Mirror) Load(ctx context.Context, sessionID string) (*player.SessionState, error) {
	return m.LoadFn(ctx, sessionID)
}

func (m *Mirror) Delete(ctx context.Context, sessionID string) error {
	return m.DeleteFn(ctx, sessionID)
}
