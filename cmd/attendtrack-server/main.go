package main

import (
	"attendtrack-backend/internal/attendance"
	"attendtrack-backend/internal/components/chrono"
	"attendtrack-backend/internal/components/telemetry"
	"attendtrack-backend/internal/db"
	"attendtrack-backend/internal/samvidha"
	"attendtrack-backend/internal/scheduler"
	"attendtrack-backend/internal/server"
	"attendtrack-backend/lib/configutil"
	"attendtrack-backend/lib/restyutil"
	"attendtrack-backend/lib/serviceutil"
	libtelemetry "attendtrack-backend/lib/telemetry"
	"context"
	"flag"
	"log/slog"
	"os"
	"time"
)

func initTelemetry(ctx context.Context) {
	t, err := libtelemetry.SetupFromEnv(ctx, "attendtrack-server")
	if os.IsNotExist(err) {
		slog.Info("telemetry.json5 not found, metrics and traces are not exported")
		return
	}
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := t.Shutdown(shutdownCtx)
		if err != nil {
			slog.Warn("telemetry did not shut down cleanly", "err", err)
		}
	}()
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	configPath := flag.String("config", "config.json5", "The config file to read.")
	flag.Parse()

	libtelemetry.InitSlog(*verbose)
	ctx := serviceutil.SignalContext()
	initTelemetry(ctx)

	cfg, err := configutil.ReadConfig(*configPath, defaultConfig)
	if os.IsNotExist(err) {
		slog.Warn("config not found, using defaults", "path", *configPath)
	} else if err != nil {
		serviceutil.Fatal("read config", err)
	}

	tel, err := telemetry.NewOtelAPI("attendtrack-server", telemetry.NewSlogAPI(nil))
	if err != nil {
		serviceutil.Fatal("init otel api", err)
	}
	clock, err := chrono.NewStandardImpl()
	if err != nil {
		serviceutil.Fatal("init clock", err)
	}

	clientOpts := cfg.clientOptions()
	if *verbose {
		output, err := restyutil.NewFilesystemOutput(".dev/resty/samvidha")
		if err != nil {
			serviceutil.Fatal("init resty output", err)
		}
		clientOpts.Output = output
	}
	client, err := samvidha.NewClient(clientOpts, tel)
	if err != nil {
		serviceutil.Fatal("init samvidha client", err)
	}

	database, err := db.Open(ctx, cfg.Database)
	if err != nil {
		serviceutil.Fatal("open database", err)
	}
	defer database.Close()

	sched := scheduler.New(scheduler.Options{
		Delay: time.Duration(cfg.JobDelayMs) * time.Millisecond,
		Clock: clock,
		Tel:   tel,
	})
	svc := attendance.NewService(client, sched, database, clock, tel, cfg.serviceOptions())

	if cfg.RefreshCron != "" {
		cron := chrono.NewStandardCron(clock.Location(), tel)
		err = svc.StartRefreshDaemon(ctx, cron, cfg.RefreshCron)
		if err != nil {
			serviceutil.Fatal("start refresh daemon", err)
		}
		defer func() { <-cron.Stop() }()
	}

	libtelemetry.InstrumentPerfStats(ctx, 15*time.Second)

	router := server.NewRouter(svc, tel, cfg.serverConfig())
	serviceutil.StartHttpServer(ctx, cfg.Http.Port, router)
}
