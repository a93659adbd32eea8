package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"petnet/backend/internal/api/handler"
	"petnet/backend/internal/chat"
	"petnet/backend/internal/config"
	"petnet/backend/internal/models"
	"petnet/backend/internal/notification"
	"petnet/backend/internal/presence"
	"petnet/backend/internal/push"
	"petnet/backend/internal/realtime"
	"petnet/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func setupDependencies() (*gorm.DB, *redis.Client) {
	dsn := envOr("DATABASE_DSN",
		"host=localhost user=petnet password=petnet dbname=petnet port=5432 sslmode=disable")

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     envOr("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Conversation{},
		&models.Message{},
		&models.Notification{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

func main() {
	log.Println("Starting PetNet messaging backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	db, rdb := setupDependencies()
	store := storage.NewStorageService(db, rdb)

	registry := presence.NewMemoryRegistry()
	hub := realtime.NewHub(registry, rdb)
	go hub.Run()

	var dispatcher push.Dispatcher = push.NewNopDispatcher()
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		dispatcher = push.NewKafkaDispatcher(strings.Split(brokers, ","), config.PushTopic)
		log.Printf("INFO: Push dispatch enabled via Kafka brokers %s", brokers)
	} else {
		log.Println("WARNING: KAFKA_BROKERS not set, push dispatch disabled")
	}

	notifications := notification.NewService(store)
	chatSvc := chat.NewService(store, registry, notifications, dispatcher, hub)

	r := gin.Default()
	h := handler.NewHandler(chatSvc, notifications, hub, []byte(jwtSecret))
	h.RegisterRoutes(r, os.Getenv("ENABLE_DEV_TOKEN") == "true")

	server := &http.Server{
		Addr:           envOr("HTTP_ADDR", ":8080"),
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Fatal(server.ListenAndServe())
}
