package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"taskboard/internal/audit"
	audithandler "taskboard/internal/audit/handler"
	auditstore "taskboard/internal/audit/store"
	commenthandler "taskboard/internal/comment/handler"
	commentservice "taskboard/internal/comment/service"
	commentstore "taskboard/internal/comment/store"
	identityhandler "taskboard/internal/identity/handler"
	"taskboard/internal/identity/revocation"
	identityservice "taskboard/internal/identity/service"
	identitystore "taskboard/internal/identity/store"
	"taskboard/internal/identity/token"
	"taskboard/internal/platform/config"
	"taskboard/internal/platform/httpserver"
	"taskboard/internal/platform/logger"
	"taskboard/internal/platform/metrics"
	"taskboard/internal/platform/postgres"
	"taskboard/internal/platform/redis"
	"taskboard/internal/project/access"
	projecthandler "taskboard/internal/project/handler"
	projectservice "taskboard/internal/project/service"
	projectstore "taskboard/internal/project/store"
	taskhandler "taskboard/internal/task/handler"
	taskservice "taskboard/internal/task/service"
	taskstore "taskboard/internal/task/store"
	httptransport "taskboard/internal/transport/http"
	txcontext "taskboard/pkg/platform/tx"
)

// main wires dependencies and owns the server lifecycle. Business logic lives
// in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Stores: postgres when DATABASE_URL is set, in-memory otherwise.
	var (
		users    identitystore.UserStore
		roles    identitystore.RoleStore
		projects projectstore.ProjectStore
		members  projectstore.MemberStore
		tasks    taskstore.Store
		comments commentstore.Store
		trail    auditstore.Store
		txRunner taskservice.TxRunner = txcontext.PassRunner{}
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		identityPG := identitystore.NewPostgres(db)
		projectPG := projectstore.NewPostgres(db)
		users, roles = identityPG, identityPG
		projects, members = projectPG, projectPG
		tasks = taskstore.NewPostgres(db)
		comments = commentstore.NewPostgres(db)
		trail = auditstore.NewPostgres(db)
		txRunner = postgres.NewTxRunner(db)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		identityMem := identitystore.NewInMemory()
		projectMem := projectstore.NewInMemory()
		users, roles = identityMem, identityMem
		projects, members = projectMem, projectMem
		tasks = taskstore.NewInMemory()
		comments = commentstore.NewInMemory()
		trail = auditstore.NewInMemory()
	}

	// Token revocation: redis when configured, in-memory otherwise.
	var revoked revocation.List
	redisClient, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		revoked = revocation.NewRedisList(redisClient.Client)
	} else {
		revoked = revocation.NewMemoryList()
	}

	tokens := token.NewService(cfg.JWTSigningKey, cfg.TokenTTL, revoked)
	guard := access.NewGuard(roles, projects, members)
	recorder := audit.NewRecorder(trail, m)
	reconstructor := audit.NewReconstructor(trail, users)

	identitySvc := identityservice.New(users, roles, tokens, m, cfg.BcryptCost)
	projectSvc := projectservice.New(projects, members, users)
	taskSvc := taskservice.New(tasks, projects, members, roles, users, guard, recorder, txRunner, m)
	commentSvc := commentservice.New(comments, tasks, users, guard)

	router := httptransport.NewRouter(log, m,
		identityhandler.New(identitySvc, log, tokens),
		projecthandler.New(projectSvc, log, tokens),
		taskhandler.New(taskSvc, log, tokens),
		commenthandler.New(commentSvc, log, tokens),
		audithandler.New(reconstructor, identitySvc, log, tokens),
	)
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting taskboard", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}
