package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"counseling-scheduler-api/internal/config"
	"counseling-scheduler-api/internal/handler"
	"counseling-scheduler-api/internal/middleware"
	"counseling-scheduler-api/internal/store"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// database
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer client.Disconnect(context.Background())
	if err := client.Ping(ctx, nil); err != nil {
		log.Fatalf("mongo ping: %v", err)
	}
	log.Infof("connected to mongodb, database %q", cfg.MongoDBName)

	st := store.New(client.Database(cfg.MongoDBName))
	if err := st.EnsureIndexes(ctx); err != nil {
		log.Warnf("index bootstrap: %v", err)
	}

	h := handler.New(st, cfg.SecretKey)

	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.Identity(cfg.SecretKey))
	r.Use(middleware.RequestID(log))

	r.GET("/", h.Index)
	r.GET("/ping", h.Ping)
	r.GET("/health", h.Health)

	rl := middleware.NewRateLimiter(5, 10)
	r.POST("/register", middleware.RateLimit(rl), h.Register)
	r.POST("/login", middleware.RateLimit(rl), h.Login)

	r.POST("/appointments", h.CreateAppointment)
	r.GET("/appointments/:userID", h.UserAppointments)
	r.PUT("/appointments/:id/status", h.UpdateStatus)
	r.PUT("/appointments/:id/attended", h.UpdateAttended)
	r.GET("/all-appointments", h.AllAppointments)
	r.GET("/user/:userID", h.UserProfile)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}
	go func() {
		log.Infof("listening on :%s", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("http: %v", err)
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
}
