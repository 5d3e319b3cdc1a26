package cmd

import (
	"context"
	"fmt"

	"factorlens/api"
	"factorlens/internal/logger"
	"factorlens/internal/repository"
	l2_service "factorlens/internal/service/l2"
	"factorlens/internal/util"
)

// InitializeDependencies loads config and, when the config names a data
// directory, the panel served by the API.
func InitializeDependencies(ctx context.Context, configPath string) (*api.ApiHandler, error) {
	cfg, err := util.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	apiHandler := &api.ApiHandler{
		Config:                  *cfg,
		FactorExpressionService: l2_service.NewFactorExpressionService(cfg.Workers),
	}

	if cfg.DataDir != "" {
		panel, err := repository.NewPanelRepository().Load(ctx, cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load panel: %w", err)
		}
		apiHandler.Panel = panel
	} else {
		logger.FromContext(ctx).Warn("no dataDir configured; requests must carry their own panel")
	}

	return apiHandler, nil
}
