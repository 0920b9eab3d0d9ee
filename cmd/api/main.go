package main

import (
	"context"
	"net"
	"net/http"
	"os"

	"github.com/eglinebooks/egline/pkg/config"
	"github.com/eglinebooks/egline/pkg/database"
	"github.com/eglinebooks/egline/pkg/migrations"
	"github.com/eglinebooks/egline/pkg/server"
	"github.com/eglinebooks/egline/pkg/version"
	"github.com/eglinebooks/egline/pkg/worker"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"
)

func main() {
	ctx := context.Background()
	log := logger.New()

	log.Info("starting egline", logger.Data{"version": version.Version})

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	if err := os.MkdirAll(cfg.StorageDir, 0755); err != nil {
		log.Err(err).Fatal("storage directory error")
	}
	log.Info("storage directory initialized", logger.Data{"path": cfg.StorageDir})

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}

	group, err := migrations.BringUpToDate(ctx, db)
	if err != nil {
		log.Err(err).Fatal("migrations error")
	}
	if group.ID == 0 {
		log.Info("no new migrations to run")
	} else {
		log.Info("migrated to new group", logger.Data{"group_id": group.ID, "migration_names": group.Migrations.String()})
	}

	wrkr := worker.New(cfg, db)

	srv, err := server.New(cfg, db)
	if err != nil {
		log.Err(err).Fatal("server error")
	}

	graceful := signals.Setup()

	go func() {
		lc := net.ListenConfig{}
		listener, err := lc.Listen(ctx, "tcp", srv.Addr)
		if err != nil {
			log.Err(err).Fatal("failed to bind port")
		}
		log.Info("server started", logger.Data{"addr": listener.Addr().String()})

		err = srv.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Fatal("server stopped")
		}
		log.Info("server stopped")
	}()

	if err := wrkr.Start(); err != nil {
		log.Err(err).Fatal("worker error")
	}
	if next := wrkr.NextRun(); next != nil {
		log.Info("worker started", logger.Data{"next_reconcile": next.String()})
	} else {
		log.Info("worker started, rating reconciliation disabled")
	}

	<-graceful
	log.Info("starting graceful shutdown")

	err = srv.Shutdown(ctx)
	if err != nil {
		log.Err(err).Error("server shutdown error")
	}
	log.Info("server shutdown")

	wrkr.Shutdown()
	log.Info("worker shutdown")

	err = db.Close()
	if err != nil {
		log.Err(err).Error("database close error")
	}
	log.Info("database closed")
}
