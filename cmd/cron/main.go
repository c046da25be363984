package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/conf"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/robfig/cron/v3"
	_ "go.uber.org/automaxprocs"
)

// defaultSchedule fires the dispatch every day at 09:00 (seconds field included).
const defaultSchedule = "0 0 9 * * *"

var (
	flagconf string
)

func init() {
	flag.StringVar(&flagconf, "conf", "configs/config.yaml", "config path, eg: -conf config.yaml")
}

func main() {
	flag.Parse()

	c := config.New(
		config.WithSource(
			file.NewSource(flagconf),
		),
	)
	defer c.Close()

	if err := c.Load(); err != nil {
		panic(err)
	}

	var bc conf.Bootstrap
	if err := c.Scan(&bc); err != nil {
		panic(err)
	}

	if err := bc.Validate(); err != nil {
		panic(fmt.Sprintf("config validation failed: %v", err))
	}

	app, cleanup, err := wireApp(&bc)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	schedule := defaultSchedule
	if bc.Cron != nil && bc.Cron.Schedule != "" {
		schedule = bc.Cron.Schedule
	}

	cronScheduler := cron.New(cron.WithSeconds())

	_, err = cronScheduler.AddFunc(schedule, func() {
		if bc.Cron != nil && !bc.Cron.Enabled {
			log.Println("[CRON] Daily dispatch is disabled, skipping")
			return
		}

		log.Println("[CRON] Starting daily dispatch...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		report, err := app.dispatchUsecase.Run(ctx)
		if err != nil {
			log.Printf("[CRON] Daily dispatch failed: %v", err)
			return
		}
		log.Printf("[CRON] Daily dispatch finished: %s", report)
	})
	if err != nil {
		panic(fmt.Sprintf("failed to add daily dispatch job: %v", err))
	}

	cronScheduler.Start()
	log.Println("========================================")
	log.Println("Cron jobs started successfully")
	log.Printf("  - Daily dispatch: %s", schedule)
	log.Println("========================================")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down gracefully...")

	ctx := cronScheduler.Stop()
	select {
	case <-ctx.Done():
		log.Println("Cron jobs stopped gracefully")
	case <-time.After(5 * time.Second):
		log.Println("Cron jobs forced to stop after timeout")
	}
}
