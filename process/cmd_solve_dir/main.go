package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"capsolve/models"
	"capsolve/pkg/config"
	"capsolve/process/report"
	"capsolve/process/solvedir"
)

func main() {
	dir := flag.String("dir", "captchas", "directory of saved captcha images")
	workers := flag.Int("workers", 4, "parallel solve pipelines")
	record := flag.Bool("record", false, "record attempts in the database (needs DB_DSN)")
	username := flag.String("username", "admin", "operator owning recorded attempts")
	move := flag.Bool("move", false, "move solved files to <dir>/solved")
	flag.Parse()

	cfg := config.Load()
	solver, _, err := cfg.OpenSolver()
	if err != nil {
		log.Fatalf("setup: %v", err)
	}
	opts := solvedir.Options{Dir: *dir, Workers: *workers, Move: *move}
	if *record {
		if cfg.DBDSN == "" {
			fmt.Fprintln(os.Stderr, "DB_DSN not set; export and retry")
			os.Exit(2)
		}
		gdb := report.MustDBFromEnv()
		var user models.User
		if err := gdb.Where("username = ?", *username).First(&user).Error; err != nil {
			log.Fatalf("user %s not found: %v", *username, err)
		}
		opts.DB, opts.UserID = gdb, user.ID
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	sum, err := solvedir.Run(ctx, solver, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("total=%d solved=%d no_parse=%d failed=%d\n", sum.Total, sum.Solved, sum.NoParse, sum.Failed)
}
