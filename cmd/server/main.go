package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/VitaminP8/threadly/internal/api"
	"github.com/VitaminP8/threadly/internal/auth"
	"github.com/VitaminP8/threadly/internal/comment"
	"github.com/VitaminP8/threadly/internal/config"
	"github.com/VitaminP8/threadly/internal/csrf"
	"github.com/VitaminP8/threadly/internal/logger"
	"github.com/VitaminP8/threadly/internal/metrics"
	"github.com/VitaminP8/threadly/internal/post"
	"github.com/VitaminP8/threadly/internal/storage/memory"
	"github.com/VitaminP8/threadly/internal/storage/postgres"
	"github.com/VitaminP8/threadly/internal/subscription"
	"github.com/VitaminP8/threadly/internal/user"
	"github.com/VitaminP8/threadly/internal/vote"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	storageType := flag.String("storage", "", "Тип хранилища: memory или postgres (по умолчанию из STORAGE)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *storageType != "" {
		cfg.Storage = *storageType
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	// run возвращает ошибку, а не завершает процесс: отложенные Sync и CloseDB должны отработать
	if err := run(cfg); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func run(cfg config.Config) error {
	zl, err := logger.New(cfg.Env)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer zl.Sync()
	zap.ReplaceGlobals(zl)

	manager := subscription.NewSubscriptionManager()

	var postStore post.PostStorage
	var commentStore comment.CommentStorage
	var userStore user.UserStorage
	var voteStore vote.VoteStorage
	var tokenStore csrf.TokenStore

	switch cfg.Storage {
	case "postgres":
		if err := postgres.InitDB(cfg.DB); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer postgres.CloseDB()

		zl.Info("using PostgreSQL storage")
		postStore = postgres.NewPostPostgresStorage()
		commentStore = postgres.NewCommentPostgresStorage(manager)
		userStore = postgres.NewUserPostgresStorage()
		voteStore = postgres.NewVotePostgresStorage()
		tokenStore = postgres.NewCSRFPostgresStorage()

	case "memory":
		zl.Info("using in-memory storage")
		posts := memory.NewPostMemoryStorage()
		comments := memory.NewCommentMemoryStorage(posts, manager)
		postStore = posts
		commentStore = comments
		userStore = memory.NewUserMemoryStorage()
		voteStore = memory.NewVoteMemoryStorage(posts, comments)
		tokenStore = memory.NewCSRFMemoryStorage()
	}

	tokens := csrf.NewService(tokenStore, cfg.CSRFTTL, zl)
	e := api.NewServer(&api.Handler{
		PostStore:    postStore,
		CommentStore: commentStore,
		UserStore:    userStore,
		VoteStore:    voteStore,
		Issuer:       auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Tokens:       tokens,
		Manager:      manager,
		Metrics:      metrics.New(),
		Logger:       zl,
		SecureCookie: cfg.Env == "production",
		HTTP:         cfg.HTTP,
	})

	// Ожидание SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	// запросы наследуют gctx: при остановке потоки событий закрываются сами
	server := api.NewHTTPServer(gctx, ":"+cfg.Port, e)
	g.Go(func() error {
		zl.Info("server started", zap.String("addr", "http://localhost:"+cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return tokens.RunCleanup(gctx, cfg.CSRFCleanup)
	})
	g.Go(func() error {
		<-gctx.Done()
		zl.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zl.Error("server stopped with error", zap.Error(err))
		return err
	}
	zl.Info("server stopped")
	return nil
}
