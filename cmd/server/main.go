package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/devicehub-lab/databridge/internal/bus"
	"github.com/devicehub-lab/databridge/internal/config"
	"github.com/devicehub-lab/databridge/internal/health"
	mw "github.com/devicehub-lab/databridge/internal/middleware"
	"github.com/devicehub-lab/databridge/internal/realtime"
	"github.com/devicehub-lab/databridge/internal/store"
	"github.com/devicehub-lab/databridge/internal/tokens"
	"github.com/devicehub-lab/databridge/internal/topics"
)

func main() {
	cfg := config.Load()

	// Coordination store
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()

	kvStore, err := store.NewRedisStore(redisClient)
	if err != nil {
		log.Fatalf("failed to set up store: %v", err)
	}

	// Bus gateway
	gateway, err := bus.NewGateway(bus.Config{
		Brokers:       cfg.KafkaBrokers,
		ConsumerGroup: cfg.KafkaConsumerGroup,
		Topic:         cfg.DeviceDataTopic,
	})
	if err != nil {
		log.Fatalf("failed to set up bus gateway: %v", err)
	}
	defer gateway.Close()

	// Topic registry
	registry := topics.NewRegistry(kvStore, gateway, topics.Profile{
		PartitionCount:    cfg.DefaultPartitions,
		ReplicationFactor: cfg.DefaultReplication,
	})
	topicHandlers := topics.NewHandlers(registry)

	// Token broker
	broker := tokens.NewBroker(kvStore, time.Duration(cfg.TokenTTLSeconds)*time.Second)
	tokenHandlers := tokens.NewHandlers(broker)

	// Realtime hub
	hub := realtime.NewHub()
	go hub.Run()
	wsHandler := realtime.NewWSHandler(hub, broker)

	// Ingestion pump: bus events into tenant rooms.
	go func() {
		for event := range gateway.Events() {
			hub.Route(event.Tenant, event.Payload)
		}
	}()

	// Health surface holds its own dependency handles.
	healthHandlers := health.NewHandlers(health.NewChecker(kvStore, gateway))

	// Routes
	r := mux.NewRouter()
	r.Use(mw.RateLimit(50, 100))
	healthHandlers.RegisterRoutes(r)
	wsHandler.RegisterRoutes(r)

	api := r.NewRoute().Subrouter()
	api.Use(mw.Auth(cfg.JWTSecret))
	topicHandlers.RegisterRoutes(api)
	tokenHandlers.RegisterRoutes(api)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("databridge listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
}
