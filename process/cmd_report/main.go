package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"capsolve/models"
	"capsolve/pkg/config"
	"capsolve/process/report"
)

func main() {
	username := flag.String("username", "", "limit to one operator (default: everyone)")
	days := flag.Int("days", 7, "report window in days")
	flag.Parse()
	config.LoadDotEnv()

	if os.Getenv("DB_DSN") == "" {
		fmt.Fprintln(os.Stderr, "DB_DSN not set; export DB_DSN and retry")
		os.Exit(2)
	}
	gdb := report.MustDBFromEnv()

	var userID uint
	if *username != "" {
		var user models.User
		if err := gdb.Where("username = ?", *username).First(&user).Error; err != nil {
			log.Fatalf("user not found: %v", err)
		}
		userID = user.ID
	}
	since := time.Now().UTC().AddDate(0, 0, -*days)
	s, err := report.Summarize(gdb, since, userID)
	if err != nil {
		log.Fatalf("report failed: %v", err)
	}
	report.Print(os.Stdout, s)
}
