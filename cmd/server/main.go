package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"appointment-booking-web/internal/api"
	"appointment-booking-web/internal/auth"
	"appointment-booking-web/internal/config"
	"appointment-booking-web/internal/handler"
	"appointment-booking-web/internal/middleware"
	"appointment-booking-web/internal/session"
	"appointment-booking-web/internal/store"
	"appointment-booking-web/internal/view"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("timezone: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStore := openStore(ctx, cfg)
	defer closeStore()

	key, err := auth.DeriveKey(cfg.SessionSecret, "session-cookie")
	if err != nil {
		log.Fatalf("session key: %v", err)
	}
	sessions := session.NewManager(st, key, session.Options{TTL: cfg.SessionTTL, Secure: cfg.CookieSecure})

	pages, err := view.New(loc)
	if err != nil {
		log.Fatalf("templates: %v", err)
	}
	h := handler.New(api.New(cfg.APIBaseURL, cfg.APITimeout), sessions, pages, loc)

	rl := middleware.NewRateLimiter(cfg.LoginRate, cfg.LoginBurst)
	app := middleware.Logging(middleware.SecurityHeaders(middleware.CORS(cfg.CORSOrigins,
		middleware.RateLimit(rl, sessions.Middleware(h.Routes())),
	)))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		log.Printf("listening on %s, backend %s", cfg.Addr, cfg.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()

	// graceful shutdown
	<-ctx.Done()
	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// openStore connects the configured session backend and starts its expiry
// loop.
func openStore(ctx context.Context, cfg config.Config) (store.Store, func()) {
	switch cfg.SessionBackend {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		if err := pool.Ping(ctx); err != nil {
			log.Fatalf("db ping: %v", err)
		}
		log.Println("connected to postgres")

		if migration, err := os.ReadFile("db/migrations/001_init.sql"); err != nil {
			log.Printf("migration file not found, skipping: %v", err)
		} else if _, err := pool.Exec(ctx, string(migration)); err != nil {
			log.Printf("migration warning: %v", err)
		} else {
			log.Println("migration applied")
		}

		pg := store.NewPostgres(pool)
		go func() {
			t := time.NewTicker(10 * time.Minute)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-t.C:
					if n, err := pg.Purge(ctx, time.Now()); err != nil {
						log.Printf("purge sessions: %v", err)
					} else if n > 0 {
						log.Printf("purged %d expired sessions", n)
					}
				}
			}
		}()
		return pg, pool.Close

	case "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis url: %v", err)
		}
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis ping: %v", err)
		}
		log.Println("connected to redis")
		// keys carry their own TTL
		return store.NewRedis(rdb), func() { rdb.Close() }
	}

	mem := store.NewMemory()
	go mem.Sweep(ctx, time.Minute)
	return mem, func() {}
}
