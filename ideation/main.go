package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/foundry-app/foundry-go/internal/archive"
	"github.com/foundry-app/foundry-go/internal/genai"
	"github.com/foundry-app/foundry-go/internal/platform/auditlog"
	"github.com/foundry-app/foundry-go/internal/platform/auth"
	"github.com/foundry-app/foundry-go/internal/platform/env"
	"github.com/foundry-app/foundry-go/internal/platform/httpserver"
	"github.com/foundry-app/foundry-go/internal/platform/objectstore"
	"github.com/foundry-app/foundry-go/internal/platform/postgres"
	repostore "github.com/foundry-app/foundry-go/internal/repo/postgres"
	"github.com/foundry-app/foundry-go/internal/service/ideation"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := env.String("FOUNDRY_HTTP_ADDR", ":8080")
	shutdownTimeout, err := env.Duration("FOUNDRY_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}

	dbCfg, err := postgres.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid database config", "error", err)
		os.Exit(2)
	}
	db, err := postgres.Open(ctx, dbCfg)
	if err != nil {
		logger.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	genCfg, err := genai.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid generation config", "error", err)
		os.Exit(2)
	}
	profile, err := genCfg.ResolveProfile()
	if err != nil {
		logger.Error("invalid generation profile", "error", err)
		os.Exit(2)
	}
	var genClient genai.Client
	switch genCfg.Mode {
	case genai.ClientModeOpenAI:
		genClient, err = genai.NewOpenAIClient(genCfg, profile)
		if err != nil {
			logger.Error("generation client init failed", "error", err)
			os.Exit(2)
		}
	default:
		genClient = genai.NewMockClient(profile)
		logger.Warn("using mock generation client", "mode", genCfg.Mode)
	}

	transcriptsEnabled, err := env.Bool("FOUNDRY_TRANSCRIPTS_ENABLED", false)
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}
	var transcripts archive.TranscriptWriter
	readiness := []httpserver.ReadinessCheck{
		{
			Name: "postgres",
			Check: func(ctx context.Context) error {
				checkCtx, cancel := context.WithTimeout(ctx, 750*time.Millisecond)
				defer cancel()
				return db.PingContext(checkCtx)
			},
		},
	}
	if transcriptsEnabled {
		storeCfg, err := objectstore.ConfigFromEnv()
		if err != nil {
			logger.Error("invalid object store config", "error", err)
			os.Exit(2)
		}
		storeClient, err := objectstore.NewMinIOClient(storeCfg)
		if err != nil {
			logger.Error("object store client init failed", "error", err)
			os.Exit(2)
		}
		startupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = objectstore.EnsureTranscriptsBucket(startupCtx, storeClient, storeCfg)
		cancel()
		if err != nil {
			logger.Error("object store unavailable", "error", err)
			os.Exit(1)
		}
		store, err := archive.NewStore(storeClient, storeCfg)
		if err != nil {
			logger.Error("transcript store init failed", "error", err)
			os.Exit(2)
		}
		transcripts = store
		readiness = append(readiness, httpserver.ReadinessCheck{
			Name: "minio",
			Check: func(ctx context.Context) error {
				checkCtx, cancel := context.WithTimeout(ctx, 750*time.Millisecond)
				defer cancel()
				_, err := storeClient.BucketExists(checkCtx, storeCfg.BucketTranscripts)
				return err
			},
		})
	}

	authCfg, err := auth.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid auth config", "error", err)
		os.Exit(2)
	}
	var authenticator auth.Authenticator
	switch authCfg.Mode {
	case auth.ModeOIDC:
		authenticator, err = auth.NewOIDCAuthenticator(ctx, authCfg)
		if err != nil {
			logger.Error("oidc init failed", "error", err)
			os.Exit(1)
		}
	default:
		authenticator = auth.NewDevAuthenticator(authCfg)
		logger.Warn("using dev authenticator", "subject", authCfg.DevSubject)
	}

	svcCfg, err := ideation.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid ideation config", "error", err)
		os.Exit(2)
	}
	service, err := ideation.NewService(
		genClient,
		repostore.NewIdeaStore(db),
		auditlog.NewAppender(db),
		transcripts,
		logger,
		svcCfg,
	)
	if err != nil {
		logger.Error("ideation service init failed", "error", err)
		os.Exit(2)
	}
	go service.RunSweeper(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", httpserver.Healthz("ideation"))
	mux.HandleFunc("/readyz", httpserver.ReadyzWithChecks("ideation", readiness...))

	api := newIdeationAPI(logger, service)
	api.register(mux)

	handler := auth.Middleware{
		Logger:        logger,
		Authenticator: authenticator,
		SkipPrefixes:  []string{"/healthz", "/readyz"},
	}.Wrap(mux)

	cfg := httpserver.Config{
		Service:         "ideation",
		Addr:            addr,
		ShutdownTimeout: shutdownTimeout,
	}

	if err := httpserver.Run(ctx, logger, cfg, httpserver.Wrap(logger, "ideation", handler)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
