package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"campusattend/internal/attendance"
	"campusattend/internal/config"
	"campusattend/internal/queue"
	"campusattend/internal/store"
)

// Worker consumes mark events and writes an audit trail entry per mark.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	var records attendance.Store
	switch cfg.StoreBackend {
	case "sqlite":
		db, err := store.NewSQLite(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("db connect failed: %v", err)
		}
		defer db.Close()
		records = attendance.NewSQLStore(db.Client)
	default:
		db, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db connect failed: %v", err)
		}
		defer db.Close()
		records = attendance.NewSQLStore(db.Client)
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "campusattend:marks")
	}

	events, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("audit worker started, waiting for mark events...")
	for evt := range events {
		if evt.Kind != queue.EventMark {
			continue
		}

		rec, err := records.Get(ctx, evt.RecordID)
		if err != nil {
			log.Printf("audit: fetch mark %s failed: %v", evt.RecordID, err)
			continue
		}
		log.Printf("audit: mark %s student=%s date=%s period=%q status=%s by=%s method=%s",
			rec.ID, rec.StudentID, rec.Date.Format("2006-01-02"), rec.Period, rec.Status, rec.MarkedBy, rec.Method)
	}

	log.Println("worker stopped")
}
