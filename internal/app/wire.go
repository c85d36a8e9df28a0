//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"

	"github.com/tair/seller-dashboard/internal/config"
)

// InitializeApp wires the dashboard from configuration
func InitializeApp(cfg *config.Config) (*App, func(), error) {
	wire.Build(ProviderSet)
	return nil, nil, nil
}
