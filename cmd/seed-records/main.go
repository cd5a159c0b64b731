package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/stemsi/recordclean/internal/config"
	"github.com/stemsi/recordclean/internal/logger"
	"github.com/stemsi/recordclean/internal/model"
	"github.com/stemsi/recordclean/internal/repository"
)

func main() {
	var count int
	flag.IntVar(&count, "count", 10, "number of users to seed")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	backend, err := repository.OpenBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to record store")
	}
	defer backend.Close()

	count = min(max(count, 1), len(names))
	attendances := backend.Records(cfg.Collection(model.KindAttendance))
	iats := backend.Records(cfg.Collection(model.KindIat))

	fmt.Printf("=== Seeding %d users into %s and %s ===\n", count, attendances.Name(), iats.Name())

	successCount := 0
	for i := range count {
		userID := fmt.Sprintf("user%d", i+1)

		if _, err := attendances.Insert(ctx, attendanceFixture(userID, i)); err != nil {
			fmt.Printf("Error creating attendance for %s (%s): %v\n", names[i], userID, err)
			continue
		}
		if _, err := iats.Insert(ctx, iatFixture(userID, i)); err != nil {
			fmt.Printf("Error creating IAT for %s (%s): %v\n", names[i], userID, err)
			continue
		}
		successCount++
		if (i+1)%5 == 0 {
			fmt.Printf("Created %d users...\n", i+1)
		}
	}

	fmt.Printf("\nSeed completed! Successfully added %d/%d users.\n", successCount, count)
}
