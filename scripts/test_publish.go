//go:build ignore

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/placenet-simulator/internal/domain"
)

func main() {
	redisAddr := flag.String("redis", "localhost:6379", "Redis address for streams")
	start := flag.String("start", "2011-01-01", "simulation start date (YYYY-MM-DD)")
	days := flag.Int("days", 14, "simulation length in days")
	seed := flag.Int64("seed", 1, "random seed")
	wait := flag.Duration("wait", 5*time.Minute, "how long to wait for the done event")
	flag.Parse()

	client := redis.NewClient(&redis.Options{
		Addr: *redisAddr,
	})
	defer client.Close()

	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	startDate, err := time.Parse(time.DateOnly, *start)
	if err != nil {
		log.Fatalf("Invalid start date: %v", err)
	}
	endDate := startDate.AddDate(0, 0, *days)

	event := domain.SimulationRunEvent{
		RequestID: uuid.New(),
		StartDate: &startDate,
		EndDate:   &endDate,
		Seed:      seed,
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Fatalf("Failed to marshal event: %v", err)
	}

	// Последний ID done-стрима до публикации, чтобы читать только новые ответы
	lastID := "$"
	if msgs, err := client.XRevRangeN(ctx, domain.StreamSimulationDone, "+", "-", 1).Result(); err == nil && len(msgs) > 0 {
		lastID = msgs[0].ID
	}

	id, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: domain.StreamSimulationRun,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		log.Fatalf("Failed to publish event: %v", err)
	}

	fmt.Printf("Event published\n")
	fmt.Printf("   Stream: %s\n", domain.StreamSimulationRun)
	fmt.Printf("   Message ID: %s\n", id)
	fmt.Printf("   Request ID: %s\n", event.RequestID)
	fmt.Printf("   Window: %s .. %s\n", startDate.Format(time.DateOnly), endDate.Format(time.DateOnly))

	fmt.Printf("\nWaiting for response in %s...\n", domain.StreamSimulationDone)

	deadline := time.Now().Add(*wait)
	for time.Now().Before(deadline) {
		results, err := client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{domain.StreamSimulationDone, lastID},
			Count:   10,
			Block:   time.Second,
		}).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				log.Printf("Read failed: %v", err)
			}
			continue
		}

		for _, stream := range results {
			for _, msg := range stream.Messages {
				lastID = msg.ID
				dataStr, ok := msg.Values["data"].(string)
				if !ok {
					continue
				}

				var done domain.SimulationDoneEvent
				if err := json.Unmarshal([]byte(dataStr), &done); err != nil {
					continue
				}
				if done.RequestID != event.RequestID {
					continue
				}

				pretty, _ := json.MarshalIndent(done, "", "  ")
				fmt.Printf("\nResponse received\n%s\n", pretty)
				return
			}
		}
	}

	fmt.Println("Timeout waiting for response")
}
