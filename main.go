package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/quill/internal/auth"
	"github.com/debemdeboas/quill/internal/config"
	"github.com/debemdeboas/quill/internal/db"
	"github.com/debemdeboas/quill/internal/logger"
	"github.com/debemdeboas/quill/internal/model"
	"github.com/debemdeboas/quill/internal/render"
	"github.com/debemdeboas/quill/internal/repository"
	"github.com/debemdeboas/quill/internal/repository/editor"
	"github.com/debemdeboas/quill/internal/sse"
)

func main() {
	envErr := godotenv.Load()

	bootLog := logger.New("info")
	if envErr != nil {
		bootLog.Debug().Err(envErr).Msg("No .env file, using the process environment")
	}
	config.SetLogger(bootLog)

	configPath := os.Getenv("QUILL_CONFIG")
	if configPath == "" {
		configPath = config.DefaultConfigPath
	}
	if err := config.LoadConfig(configPath); err != nil {
		bootLog.Fatal().Err(err).Str("path", configPath).Msg("Failed to load config")
	}
	cfg := config.AppConfig

	log := logger.New(cfg.Logging.Level)
	setLoggers(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	if err := database.InitDB(); err != nil {
		log.Fatal().Err(err).Msgf(config.ErrInitializeDatabaseFmt, err)
	}
	defer database.Close()

	s, err := newServer(ctx, cfg, database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up server")
	}

	if err := s.posts.Init(ctx); err != nil {
		log.Fatal().Err(err).Msg(config.ErrInitializingPosts)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Shutdown failed")
		}
	}()

	log.Info().Str("addr", srv.Addr).Msg("Starting server")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

func setLoggers(log zerolog.Logger) {
	config.SetLogger(logger.Component(log, "config"))
	db.SetLogger(logger.Component(log, "db"))
	repository.SetLogger(logger.Component(log, "repository"))
	editor.SetLogger(logger.Component(log, "editor"))
	auth.SetLogger(logger.Component(log, "auth"))
	render.SetLogger(logger.Component(log, "render"))
}

// newServer builds the server's collaborators from cfg.
func newServer(ctx context.Context, cfg *config.Config, database db.DB, log zerolog.Logger) (*server, error) {
	render.SetRenderer(cfg.Content.Renderer)

	s := &server{
		cfg:     cfg,
		log:     log,
		clients: sse.NewSSEClients(),
	}

	switch cfg.Content.Source {
	case config.SourceFS:
		s.posts = repository.NewFSPostRepository(cfg.Content.PostsPath)
	default:
		posts := repository.NewDBPostRepository(database)
		posts.SetReloadInterval(cfg.Content.ReloadEvery)
		s.posts = posts
	}
	s.posts.SetReloadNotifier(s.handleReloadPost)

	authCfg := cfg.Features.Authentication
	if authCfg.Enabled {
		switch authCfg.Type {
		case config.AuthClerk:
			s.auth = auth.NewClerkAuthProvider(os.Getenv("CLERK_API"), database)
		default:
			provider, err := auth.NewEd25519AuthProvider(os.Getenv("ED25519_PUBKEY"), config.HeaderAuthorization, model.UserID(authCfg.UserID))
			if err != nil {
				log.Error().Err(err).Msgf(config.ErrCreateProviderFmt, err)
			} else {
				s.auth = provider
				s.ed25519 = provider
			}
		}
	}

	if cfg.Features.Editor.Enabled && s.auth != nil {
		var drafts editor.Repository = editor.NewDBRepository(database)
		if cfg.Cache.Redis.Enabled {
			rdb, err := editor.NewRedisClient(ctx, cfg.Cache.Redis.URL)
			if err != nil {
				log.Warn().Err(err).Msg("Redis unavailable, serving drafts without a cache")
			} else {
				drafts = editor.NewCachedRepository(drafts, rdb, cfg.Cache.Redis.TTL)
			}
		}

		var archive repository.Archive
		if cfg.Archive.Enabled {
			a, err := repository.NewS3ArchiveFromConfig(ctx, cfg.Archive,
				os.Getenv("ARCHIVE_ACCESS_KEY_ID"), os.Getenv("ARCHIVE_SECRET_ACCESS_KEY"))
			if err != nil {
				log.Warn().Err(err).Msg("Archive disabled")
			} else {
				archive = a
			}
		}

		s.drafts = editor.NewHandler(drafts, s.auth, editor.NewPublisher(s.posts, archive))
	}

	return s, nil
}
