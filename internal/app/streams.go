package app

import (
	"context"

	"geniectl/internal/streams"
)

func (a *App) streams(ctx context.Context, target *string) (*streams.Streams, error) {
	t, err := a.transport(ctx, target)
	if err != nil {
		return nil, err
	}
	return &streams.Streams{Transport: t, Device: a.cfg.Device, Dir: a.cfg.Paths.Tmp, Logger: a.logger}, nil
}

// StreamsFetch pulls the dumped audio streams into a new numbered directory.
func (a *App) StreamsFetch(ctx context.Context, target *string) (string, error) {
	s, err := a.streams(ctx, target)
	if err != nil {
		return "", err
	}
	return s.Fetch(ctx)
}

// StreamsPlay plays a fetched raw stream locally.
func (a *App) StreamsPlay(ctx context.Context, file string) error {
	return streams.Play(ctx, a.runner, file, a.stdout, a.stderr)
}

// StreamsRecord records the device's echo source until stop is closed and
// returns the local wav path.
func (a *App) StreamsRecord(ctx context.Context, target *string, stop <-chan struct{}) (string, error) {
	s, err := a.streams(ctx, target)
	if err != nil {
		return "", err
	}
	return s.Record(ctx, stop)
}
