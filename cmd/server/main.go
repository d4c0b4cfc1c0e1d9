package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/giladwin/chat/internal/api"
	"github.com/giladwin/chat/internal/auth"
	"github.com/giladwin/chat/internal/chat"
	"github.com/giladwin/chat/internal/config"
	"github.com/giladwin/chat/internal/db"
	"github.com/giladwin/chat/internal/policy"
	"github.com/giladwin/chat/internal/repository"
	"github.com/giladwin/chat/internal/rooms"
	"github.com/giladwin/chat/internal/users"
)

func main() {
	cfg := config.Load()

	pool, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatal("Failed to apply schema: ", err)
	}
	cancel()

	filter := policy.NewFilter(cfg.ForbiddenWords)
	authority := auth.NewAuthority(cfg.AuthKey)

	usersSvc := users.NewService(repository.NewUserRepo(pool), authority, filter)
	roomsSvc := rooms.NewService(repository.NewRoomRepo(pool), filter)

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	if err := roomsSvc.EnsureDefaultRooms(ctx, cfg.DefaultRooms); err != nil {
		log.Fatal("Failed to seed default rooms: ", err)
	}
	cancel()

	hub := chat.NewHub(roomsSvc, filter)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.NewRouter(usersSvc, roomsSvc, authority, hub),
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("[SERVER] listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop

	log.Println("[SERVER] shutdown signal received, cleaning up")
	hub.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[SERVER] shutdown error: %v", err)
	}
	log.Println("[SERVER] graceful shutdown complete")
}
