package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jask/bucketd/internal/config"
	"github.com/jask/bucketd/internal/database"
	"github.com/jask/bucketd/internal/database/repository"
	"github.com/jask/bucketd/internal/importer"
	"github.com/jask/bucketd/internal/server"
	"github.com/jask/bucketd/internal/testdata"
)

func main() {
	ctx := context.Background()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		log.WithError(err).Fatal("create database directory")
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.WithError(err).Fatal("run migrations")
	}
	if err := database.SeedDefaults(ctx, db); err != nil {
		log.WithError(err).Fatal("seed defaults")
	}

	if os.Getenv("BUCKETD_DEMO") == "1" {
		err := testdata.Seed(ctx, testdata.Repos{
			Tags:         repository.NewTagRepo(db),
			Transactions: repository.NewTransactionRepo(db),
		})
		if err != nil {
			log.WithError(err).Fatal("seed demo data")
		}
		log.Info("seeded demo data")
	}

	builtins, err := importer.LoadBuiltinFormats(cfg.Import.FormatsFile)
	if err != nil {
		log.WithError(err).Fatal("load built-in formats")
	}

	srv := server.New(db, log, builtins, cfg.UI, cfg.Import.SampleSize, cfg.Import.MaxRows)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.WithField("addr", cfg.Server.Addr).Info("listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server")
	}
}
