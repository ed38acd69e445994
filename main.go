package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pixels/ads"
	"pixels/config"
	"pixels/database"
	"pixels/feed"
	"pixels/handlers"
	"pixels/logger"
	"pixels/mailer"
	"pixels/middleware"
	"pixels/push"
	"pixels/realtime"
	"pixels/routes"
	"pixels/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config: ", err)
	}

	zlog, err := logger.New(cfg.GinMode != "release")
	if err != nil {
		log.Fatal("logger: ", err)
	}
	defer zlog.Sync()

	zlog.Infow("starting Pixels Media backend", "port", cfg.Port)

	// Managed Mongo instances occasionally reject the first dial after a
	// cold start, so retry a few times before giving up.
	var db *database.Mongo
	for attempt := 1; ; attempt++ {
		db, err = database.Connect(context.Background(), cfg)
		if err == nil {
			break
		}
		if attempt >= 3 {
			zlog.Fatalw("mongodb connection failed", "attempts", attempt, "error", err)
		}
		zlog.Warnw("mongodb connection attempt failed, retrying", "attempt", attempt, "error", err)
		time.Sleep(2 * time.Second)
	}
	zlog.Info("mongodb connected")

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := storage.New(cfg.CloudinaryURL)
	if err != nil {
		zlog.Fatalw("cloudinary init failed", "error", err)
	}

	auth := middleware.NewAuth(cfg.JWTSecret)
	rt := realtime.NewManager(zlog)
	go rt.Start()

	adSvc := ads.New(ads.NewMongoStore(db), zlog)
	feedSvc := feed.New(feed.NewMongoStore(db), zlog)
	pushSvc := push.New(db, cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubscriber, zlog)
	mail := mailer.New(cfg, zlog)

	h := handlers.New(db, auth, adSvc, feedSvc, rt, pushSvc, mail, store, zlog)

	router := routes.Setup(h, rt, db)
	router.GET("/ws", gin.WrapF(realtime.Handler(rt, auth)))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zlog.Infow("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatalw("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Warnw("forced shutdown", "error", err)
	}
	rt.Stop()
	if err := db.Disconnect(context.Background()); err != nil {
		zlog.Warnw("mongodb disconnect failed", "error", err)
	}

	zlog.Info("stopped")
}
