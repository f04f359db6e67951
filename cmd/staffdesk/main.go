package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/staffdesk/internal/cli"
	"github.com/angelmondragon/staffdesk/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logg := logger.New(logger.Options{ServiceName: "staffdesk", Level: logger.ParseLevel(os.Getenv("STAFFDESK_LOG_LEVEL"))})
		logg.Debug(context.Background(), ".env file not found, relying on environment")
	}

	cmd := cli.NewRootCommand(&cli.RootOptions{})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
