// Command migrate manages the schema of the sql session storage.
//
//	migrate -cmd up|down|status|to|create|check [-dir path] [-version v] [-name n]
//
// Without -dir the migrations bundled in the binary are used; create and
// check default to the source tree.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/linarqa/linarqa-web/pkg/config"
	"github.com/linarqa/linarqa-web/pkg/db"
	"github.com/linarqa/linarqa-web/pkg/logger"
	"github.com/linarqa/linarqa-web/pkg/migrate"
)

func main() {
	cmd := flag.String("cmd", "up", "up|down|status|to|create|check")
	dir := flag.String("dir", "", "migrations directory (default: embedded)")
	name := flag.String("name", "", "name of the migration to create")
	version := flag.String("version", "", "target version for -cmd=to")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fail(logg, context.Background(), "load config", err)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	src := migrate.Source{Dir: *dir}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":    cfg.App.Env,
		"cmd":    *cmd,
		"source": src.String(),
	})

	switch *cmd {
	case "create":
		if src.Dir == "" {
			src.Dir = migrate.DevDir
		}
		file, err := migrate.Create(src.Dir, *name, time.Now())
		if err != nil {
			fail(logg, ctx, "create migration", err)
		}
		fmt.Println(file)
		return
	case "check":
		if src.Dir == "" {
			src.Dir = migrate.DevDir
		}
		if err := migrate.Check(src); err != nil {
			fail(logg, ctx, "check migrations", err)
		}
		logg.Info(ctx, "migrations ok")
		return
	}

	client, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		fail(logg, ctx, "connect database", err)
	}
	defer func() { _ = client.Close() }()
	sqlDB, err := client.DB().DB()
	if err != nil {
		fail(logg, ctx, "open sql handle", err)
	}

	switch *cmd {
	case "up", "down", "status":
		err = migrate.Run(ctx, sqlDB, client.Driver(), src, *cmd)
	case "to":
		err = migrate.To(ctx, sqlDB, client.Driver(), src, *version)
	default:
		err = fmt.Errorf("unknown command %q", *cmd)
	}
	if err != nil {
		fail(logg, ctx, *cmd, err)
	}
	logg.Info(ctx, "migrate done")
}

func fail(logg *logger.Logger, ctx context.Context, step string, err error) {
	logg.Error(ctx, "migrate."+step+" failed", err)
	os.Exit(1)
}
