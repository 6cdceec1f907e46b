package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"capsolve/pkg/captcha"
	"capsolve/pkg/config"
	"capsolve/process/bgwatch"
)

var (
	cfg       *config.Config
	jwtSecret []byte // from JWT_SECRET (dev default when unset)
	solver    *captcha.Solver
	tables    *captcha.TableStore
)

func main() {
	cfg = config.Load()
	jwtSecret = []byte(cfg.JWTSecret)

	// `./capsolve migrate` runs AutoMigrate and seeding, then exits.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		initDB()
		fmt.Println("migration and seeding completed")
		return
	}

	initDB()

	var err error
	solver, tables, err = cfg.OpenSolver()
	if err != nil {
		log.Fatalf("failed to initialize solver: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		if err := bgwatch.New(cfg.BackgroundDir, solver.References).Run(ctx); err != nil {
			log.Printf("background watcher stopped: %v", err)
		}
	}()

	r := gin.Default()
	setupRoutes(r)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
