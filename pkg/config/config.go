// Package config reads service and tool settings from the environment.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"capsolve/pkg/captcha"
)

// Config holds settings shared by the service and the process tools.
type Config struct {
	DBDSN           string
	AutoMigrate     bool
	JWTSecret       string
	ListenAddr      string
	CorrectionsPath string
	BackgroundDir   string
	TesseractLang   string
	RemoteBaseURL   string
	MaxUploadBytes  int64
}

// LoadDotEnv loads ./.env if present. Variables already set win.
func LoadDotEnv() {
	if _, err := os.Stat(".env"); err != nil {
		return
	}
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: .env not loaded: %v", err)
	}
}

// Load reads the environment (after LoadDotEnv) and applies defaults.
func Load() *Config {
	LoadDotEnv()
	return &Config{
		DBDSN:           os.Getenv("DB_DSN"),
		AutoMigrate:     getEnvAsBool("DB_AUTO_MIGRATE", true),
		JWTSecret:       getEnv("JWT_SECRET", "dev-insecure-secret-change"),
		ListenAddr:      getEnv("LISTEN_ADDR", ":8081"),
		CorrectionsPath: getEnv("CORRECTIONS_PATH", "data/corrections.json"),
		BackgroundDir:   getEnv("BACKGROUND_DIR", "data/backgrounds"),
		TesseractLang:   getEnv("TESSERACT_LANG", "eng"),
		RemoteBaseURL:   getEnv("REMOTE_BASE_URL", ""),
		MaxUploadBytes:  getEnvAsInt64("MAX_UPLOAD_BYTES", 5*1024*1024),
	}
}

// OpenSolver builds the pipeline from the configured corrections file and
// background directory, backed by Tesseract.
func (c *Config) OpenSolver() (*captcha.Solver, *captcha.TableStore, error) {
	store, err := captcha.OpenTableStore(c.CorrectionsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open corrections: %w", err)
	}
	if err := os.MkdirAll(c.BackgroundDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create background dir: %w", err)
	}
	refs := captcha.NewReferences()
	refs.LoadDir(c.BackgroundDir)
	return captcha.NewSolver(refs, store, captcha.NewTesseractRecognizer(c.TesseractLang)), store, nil
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvAsBool(k string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(k)))
	switch v {
	case "":
		return def
	case "false", "0", "no":
		return false
	default:
		return true
	}
}

func getEnvAsInt64(k string, def int64) int64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		log.Printf("warning: invalid %s=%q, using %d", k, v, def)
		return def
	}
	return n
}
