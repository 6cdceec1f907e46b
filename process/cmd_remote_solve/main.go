package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"capsolve/pkg/captcha"
	"capsolve/pkg/config"
	"capsolve/pkg/session"
)

func main() {
	username := flag.String("username", "", "remote account username")
	id := flag.String("id", "", "captcha id to fetch")
	submit := flag.Bool("submit", false, "submit the computed answer")
	flag.Parse()
	password := os.Getenv("REMOTE_PASSWORD")
	if *username == "" || *id == "" || password == "" {
		log.Fatal("-username, -id and REMOTE_PASSWORD are required")
	}

	cfg := config.Load()
	solver, _, err := cfg.OpenSolver()
	if err != nil {
		log.Fatalf("setup: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	client := session.NewClient(cfg.RemoteBaseURL)
	if err := client.Login(ctx, *username, password); err != nil {
		log.Fatalf("login failed for %s: %v", *username, err)
	}
	payload, err := client.FetchCaptcha(ctx, *id)
	if err != nil {
		log.Fatalf("fetch captcha %s: %v", *id, err)
	}
	res, err := solver.SolveBase64(payload)
	if errors.Is(err, captcha.ErrNoParse) {
		fmt.Printf("captcha %s not parsable (corrected=%q); solve it manually\n", *id, res.Corrected)
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("solve captcha %s: %v", *id, err)
	}
	fmt.Printf("captcha %s corrected=%q answer=%d\n", *id, res.Corrected, res.Answer)
	if !*submit {
		return
	}
	if err := client.Submit(ctx, *id, strconv.FormatInt(res.Answer, 10)); err != nil {
		log.Fatalf("submit failed: %v", err)
	}
	fmt.Println("captcha solved successfully")
}
