package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Spok95/teacher-kpi/internal/app"
	"github.com/Spok95/teacher-kpi/internal/bot"
	"github.com/Spok95/teacher-kpi/internal/config"
	"github.com/Spok95/teacher-kpi/internal/ctxutil"
	"github.com/Spok95/teacher-kpi/internal/db"
	"github.com/Spok95/teacher-kpi/internal/httpapi"
	"github.com/Spok95/teacher-kpi/internal/jobs"
	"github.com/Spok95/teacher-kpi/internal/logging"
	"github.com/Spok95/teacher-kpi/internal/observability"
)

func main() {
	// Загрузка переменных окружения
	if err := godotenv.Load(); err != nil {
		log.Println("Не удалось загрузить .env файл, используем переменные окружения")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Closer()

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, os.Getenv("RELEASE"))
	if err != nil {
		lg.Base.Warn("sentry init failed", zap.Error(err))
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctxutil.DefaultDBTimeout = cfg.DBTimeout

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		lg.Base.Fatal("db open", zap.Error(err))
	}
	defer func() { _ = database.Close() }()

	if err := db.Migrate(database); err != nil {
		lg.Base.Fatal("migrate", zap.Error(err))
	}
	if cfg.SeedDemo {
		if err := db.SeedDemo(ctx, database, lg.Component("seed")); err != nil {
			lg.Base.Fatal("seed demo", zap.Error(err))
		}
	}

	svc := app.NewService(app.NewPGStore(database), lg.Component("app"))

	// бот опционален: без BOT_TOKEN предупреждения о весах только пишутся в лог
	var notifier jobs.Notifier
	if cfg.BotToken != "" {
		api, err := tgbotapi.NewBotAPI(cfg.BotToken)
		if err != nil {
			lg.Base.Fatal("telegram", zap.Error(err))
		}
		lg.Base.Info("bot started", zap.String("username", api.Self.UserName))
		b := bot.New(api, svc, bot.NewPGUsers(database), cfg.ReportDir, lg.Component("bot"))
		notifier = b
		go bot.Run(ctx, api, b)
	}

	audit := jobs.NewWeightAudit(svc, notifier, lg.Component("weights_audit"))
	jobs.New(ctx, lg.Component("jobs")).Every(cfg.AuditInterval, "weights_audit", audit.Run)

	router := httpapi.NewRouter(httpapi.Deps{
		Service:     svc,
		Auth:        httpapi.NewAuthenticator(cfg.JWTSecret),
		Ping:        httpapi.PingDB(database),
		Log:         lg.Component("http"),
		CORSOrigins: cfg.CORSOrigins,
		Now:         func() time.Time { return time.Now().In(cfg.Location) },
	})
	srv := httpapi.Start(ctx, cfg.HTTPAddr, router, lg.Component("http"))

	<-ctx.Done()
	lg.Base.Info("shutting down")
	srv.Wait()
}
