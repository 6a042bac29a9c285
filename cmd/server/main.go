package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"geolens/adapters/sqlstore"
	"geolens/app"
	"geolens/internal/config"
	"geolens/internal/logging"
	"geolens/ui"
)

func main() {
	// .env is optional; environment variables win either way.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	gin.SetMode(cfg.Server.GinMode)

	logger := logging.FromEnv()

	store, err := sqlstore.Open(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		log.Fatal("Failed to open session store:", err)
	}
	defer store.Close()

	service := app.NewExplorerService(store, logger)
	service.SetSaveTTL(cfg.Session.SaveTTL)
	server := ui.NewServer(service, logger)

	if cfg.Admin.Enabled {
		go func() {
			logger.Info("admin endpoints on http://localhost:%s", cfg.Admin.Port)
			if err := http.ListenAndServe(":"+cfg.Admin.Port, ui.NewAdminMux()); err != nil {
				logger.Error("admin server exited: %v", err)
			}
		}()
	}

	logger.Info("geolens API on http://localhost:%s (store driver %s)", cfg.Server.Port, cfg.Database.Driver)
	if err := server.Run(cfg.Server.Port); err != nil {
		log.Fatal("Server failed:", err)
	}
}
