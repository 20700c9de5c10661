package commands

import (
	"attendtrack-backend/internal/attendance"
	"attendtrack-backend/internal/components/chrono"
	"attendtrack-backend/internal/components/telemetry"
	"attendtrack-backend/internal/db"
	"attendtrack-backend/internal/samvidha"
	"attendtrack-backend/internal/scheduler"
	"attendtrack-backend/lib/configutil"
	"attendtrack-backend/lib/restyutil"
	libtelemetry "attendtrack-backend/lib/telemetry"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
)

type Config struct {
	BaseUrl  string `json:"base_url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// env is everything a command needs to talk to the portal.
type env struct {
	service  *attendance.Service
	database *sql.DB
	username string
	password string
}

func (e env) Close() error {
	return e.database.Close()
}

func readConfig() (Config, error) {
	cfg, err := configutil.ReadConfig(*configPath, Config{BaseUrl: samvidha.DefaultBaseUrl})
	if err != nil && !os.IsNotExist(err) {
		return Config{}, err
	}
	if *username != "" {
		cfg.Username = *username
	}
	if *password != "" {
		cfg.Password = *password
	}
	if cfg.Username == "" || cfg.Password == "" {
		return Config{}, fmt.Errorf("missing credentials, set them in %s or pass --username and --password", *configPath)
	}
	return cfg, nil
}

// newEnv creates a service over an in-memory store, nothing is persisted
// between runs.
func newEnv(ctx context.Context) (env, error) {
	libtelemetry.InitSlog(*verbose)

	cfg, err := readConfig()
	if err != nil {
		return env{}, err
	}

	tel := telemetry.NewSlogAPI(nil)
	clock, err := chrono.NewStandardImpl()
	if err != nil {
		return env{}, err
	}

	opts := samvidha.Options{BaseUrl: cfg.BaseUrl}
	if *verbose {
		output, err := restyutil.NewFilesystemOutput(".dev/resty/cli")
		if err != nil {
			return env{}, err
		}
		opts.Output = output
	}
	client, err := samvidha.NewClient(opts, tel)
	if err != nil {
		return env{}, err
	}

	database, err := db.Open(ctx, db.Config{File: ":memory:"})
	if err != nil {
		return env{}, err
	}

	sched := scheduler.New(scheduler.Options{Clock: clock, Tel: tel})
	return env{
		service:  attendance.NewService(client, sched, database, clock, tel, attendance.Options{}),
		database: database,
		username: cfg.Username,
		password: cfg.Password,
	}, nil
}

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}
