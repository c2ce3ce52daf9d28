package main

import (
	"log/slog"
	"os"

	"gitlab.com/ahmed.bayoumi/contact-manager/internal/api"
	"gitlab.com/ahmed.bayoumi/contact-manager/internal/config"
	"gitlab.com/ahmed.bayoumi/contact-manager/internal/service"
	"gitlab.com/ahmed.bayoumi/contact-manager/internal/store"
)

// Usage example on the command line:
// > PORT=8080 DBUSER=ahmed DBPWD=secret JWT_SECRET=changeme GIN_MODE=release GIN_LOGGING=off go run main.go
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("could not load configuration", "error", err)
		os.Exit(1)
	}

	db, err := store.Open(cfg.DSN())
	if err != nil {
		slog.Error("could not connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	userStore, err := store.NewUserStore(db)
	if err != nil {
		slog.Error("could not prepare user statements", "error", err)
		os.Exit(1)
	}
	contactStore, err := store.NewContactStore(db)
	if err != nil {
		slog.Error("could not prepare contact statements", "error", err)
		os.Exit(1)
	}

	server := api.NewServer(
		userStore,
		service.NewOwnerResolver(userStore),
		service.NewContactService(contactStore),
		cfg.JWTSecret,
		cfg.TokenTTL,
	)

	slog.Info("starting contact-manager", "port", cfg.Port)
	if err := server.Router().Run(":" + cfg.Port); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
