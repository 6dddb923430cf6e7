package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/turismo-reservas/internal/config"
	"github.com/iliyamo/turismo-reservas/internal/database"
	"github.com/iliyamo/turismo-reservas/internal/handler"
	"github.com/iliyamo/turismo-reservas/internal/middleware"
	"github.com/iliyamo/turismo-reservas/internal/queue"
	"github.com/iliyamo/turismo-reservas/internal/repository"
	"github.com/iliyamo/turismo-reservas/internal/repository/memory"
	"github.com/iliyamo/turismo-reservas/internal/router"
	"github.com/iliyamo/turismo-reservas/internal/service"
	"github.com/iliyamo/turismo-reservas/internal/utils"
)

// demoPassword is the password of the accounts seeded with STORE=memory.
const demoPassword = "demo1234"

// repos groups the repositories of the selected backend.
type repos struct {
	usuarios        repository.UsuarioRepository
	emprendimientos repository.EmprendimientoRepository
	servicios       repository.ServicioTuristicoRepository
	reservas        repository.ReservaRepository
	tokens          repository.TokenRepository
	close           func() error
}

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.Store).Msg("failed to open store")
	}
	defer func() { _ = store.close() }()

	opts := []service.Option{}
	if cfg.RabbitURL != "" {
		pub, err := queue.NewPublisher(cfg.RabbitURL)
		if err != nil {
			log.Warn().Err(err).Msg("rabbitmq unavailable, domain events disabled")
		} else {
			defer func() { _ = pub.Close() }()
			opts = append(opts, service.WithPublisher(pub))
		}
		if cfg.Consumer {
			go func() {
				if err := queue.StartReservaConsumer(ctx, cfg.RabbitURL, cfg.ReservaLogDir); err != nil && !errors.Is(err, context.Canceled) {
					log.Error().Err(err).Msg("reserva consumer stopped")
				}
			}()
		}
	}

	svc := service.NewReservaService(store.reservas, store.emprendimientos, store.servicios, store.usuarios, opts...)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = middleware.NewValidator()
	e.Use(middleware.RequestID(), middleware.Logger(), middleware.Recovery())

	rdb := config.NewRedisClient(ctx, cfg.Redis)
	if rdb == nil {
		log.Warn().Str("addr", cfg.Redis.Addr).Msg("redis unavailable, rate limiting disabled")
	} else {
		defer func() { _ = rdb.Close() }()
		e.Use(middleware.NewTokenBucket(cfg.RateLimit, rdb))
	}

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, store.usuarios, store.tokens), cfg.JWTSecret)
	router.RegisterPublic(e, handler.NewEmprendimientoHandler(svc))
	router.RegisterReservas(e, handler.NewReservaHandler(svc, store.emprendimientos), cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Str("store", cfg.Store).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}

func setupLogger(cfg config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.IsDev() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func openStore(ctx context.Context, cfg config.Config) (repos, error) {
	if cfg.Store == config.StoreMemory {
		s := memory.New()
		hash, err := utils.HashPassword(demoPassword, cfg.BcryptCost)
		if err != nil {
			return repos{}, err
		}
		demo := memory.SeedDemo(s, hash)
		log.Info().
			Str("cliente", demo.Cliente.Username).
			Str("emprendedor", demo.Emprendedor.Username).
			Uint64("emprendimiento", demo.Emprendimiento.ID).
			Msg("memory store seeded")
		return repos{
			usuarios:        s.Usuarios(),
			emprendimientos: s.Emprendimientos(),
			servicios:       s.Servicios(),
			reservas:        s.Reservas(),
			tokens:          s.Tokens(),
			close:           func() error { return nil },
		}, nil
	}

	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return repos{}, err
	}
	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return repos{}, err
		}
		log.Info().Msg("database schema up to date")
	}
	return mysqlRepos(db), nil
}

func mysqlRepos(db *sql.DB) repos {
	return repos{
		usuarios:        repository.NewUsuarioRepo(db),
		emprendimientos: repository.NewEmprendimientoRepo(db),
		servicios:       repository.NewServicioRepo(db),
		reservas:        repository.NewReservaRepo(db),
		tokens:          repository.NewTokenRepo(db),
		close:           db.Close,
	}
}
