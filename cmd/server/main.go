package main

import (
	"log/slog"
	"os"

	"mystrymsg/internal/app"
)

// @title                       Mystery Message API
// @version                     1.0
// @description                 Anonymous messaging backend.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	if err := app.Run(); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}
