package cli

import (
	"context"

	"github.com/keklick1337/GhostContainers/internal/config"
)

type settingsKey struct{}

func withSettings(ctx context.Context, s config.Settings) context.Context {
	return context.WithValue(ctx, settingsKey{}, s)
}

func settingsFrom(ctx context.Context) config.Settings {
	if s, ok := ctx.Value(settingsKey{}).(config.Settings); ok {
		return s
	}
	return config.Settings{}
}
