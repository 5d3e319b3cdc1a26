package main

import (
	"context"
	"log"
	"os"

	"factorlens/cmd"
	"factorlens/internal/logger"
)

func main() {
	ctx := context.Background()
	logger.FromContext(ctx).Infow("starting factorlens api", "commit", os.Getenv("commit_hash"))

	apiHandler, err := cmd.InitializeDependencies(ctx, os.Getenv("FACTORLENS_CONFIG"))
	if err != nil {
		log.Fatal(err)
	}
	err = apiHandler.StartApi(apiHandler.Config.Api.Port)
	if err != nil {
		log.Fatal(err)
	}
}
