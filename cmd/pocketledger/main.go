package main

import (
	"context"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"pocketledger/internal/app"
	"pocketledger/internal/config"
	"pocketledger/internal/database"
	"pocketledger/internal/database/repository"
	"pocketledger/internal/drive"
	"pocketledger/internal/export"
	"pocketledger/internal/gate"
	"pocketledger/internal/logger"
	"pocketledger/internal/tui"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	for _, dir := range []string{filepath.Dir(cfg.Database.Path), cfg.Export.Dir, filepath.Dir(cfg.Log.Path)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	logger.Init(cfg.Log.Path)
	defer logger.Sync()
	zlog := logger.Get()

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	applied, err := database.Migrate(ctx, db)
	if err != nil {
		log.Fatalf("migrate: %v", err)
	}
	if applied > 0 {
		zlog.Infow("applied migrations", "count", applied, "version", database.LatestVersion())
	}

	if err := database.SeedDefaults(ctx, db); err != nil {
		log.Fatalf("seed defaults: %v", err)
	}

	expenseRepo := repository.NewExpenseRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)
	settingsRepo := repository.NewSettingsRepo(db)
	queueRepo := repository.NewExportQueueRepo(db)

	gateStore, err := gate.NewStore()
	if err != nil {
		log.Fatalf("gate store: %v", err)
	}

	uploader := &drive.Uploader{
		Queue:    queueRepo,
		Settings: settingsRepo,
		Store:    drive.NewClient(cfg.Drive.APIBaseURL, cfg.Drive.UploadBaseURL),
		Tokens:   drive.EnvTokenSource{},
		Log:      zlog,
	}

	model := app.New(ctx, app.Deps{
		Expenses:   expenseRepo,
		Categories: categoryRepo,
		Settings:   settingsRepo,
		Queue:      queueRepo,
		Writer:     export.NewWriter(cfg.Export.Dir),
		Uploader:   uploader,
		Gate:       &gate.StoreAuthenticator{Store: gateStore},
		GateStore:  gateStore,
		Log:        zlog,
	})

	program := tea.NewProgram(tui.New(model), tea.WithAltScreen(), tea.WithReportFocus())
	if _, err := program.Run(); err != nil {
		zlog.Errorw("program exited", "error", err)
		log.Fatalf("run: %v", err)
	}
}
