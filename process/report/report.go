package report

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"time"

	"capsolve/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// MustDBFromEnv opens the postgres database named by DB_DSN or exits.
func MustDBFromEnv() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN not set in env")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	return gdb
}

// Summary aggregates solve attempts.
type Summary struct {
	Since     time.Time
	Total     int64
	ByStatus  map[string]int64
	Confirmed int64
	// Corrected counts confirmed attempts whose confirmed text differed from
	// the pipeline's corrected text.
	Corrected int64
}

// SolveRate is the share of attempts that produced an answer.
func (s Summary) SolveRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.ByStatus[models.StatusSolved]) / float64(s.Total)
}

// Summarize counts attempts created at or after since, optionally for one user.
func Summarize(db *gorm.DB, since time.Time, userID uint) (Summary, error) {
	s := Summary{Since: since, ByStatus: map[string]int64{}}
	scope := func() *gorm.DB {
		q := db.Model(&models.SolveAttempt{}).Where("created_at >= ?", since)
		if userID != 0 {
			q = q.Where("user_id = ?", userID)
		}
		return q
	}
	type row struct {
		Status string
		N      int64
	}
	var rows []row
	if err := scope().Select("status, count(*) as n").Group("status").Scan(&rows).Error; err != nil {
		return s, fmt.Errorf("count by status: %w", err)
	}
	for _, r := range rows {
		s.ByStatus[r.Status] = r.N
		s.Total += r.N
	}
	if err := scope().Where("confirmed = ?", true).Count(&s.Confirmed).Error; err != nil {
		return s, fmt.Errorf("count confirmed: %w", err)
	}
	if err := scope().Where("confirmed = ? AND confirmed_text <> corrected", true).Count(&s.Corrected).Error; err != nil {
		return s, fmt.Errorf("count corrected: %w", err)
	}
	return s, nil
}

// Print writes a human readable report.
func Print(w io.Writer, s Summary) {
	fmt.Fprintf(w, "Solve attempts since %s (UTC):\n", s.Since.UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "  total=%d solve_rate=%.2f confirmed=%d corrected_by_operator=%d\n", s.Total, s.SolveRate(), s.Confirmed, s.Corrected)
	statuses := make([]string, 0, len(s.ByStatus))
	for k := range s.ByStatus {
		statuses = append(statuses, k)
	}
	sort.Strings(statuses)
	for _, k := range statuses {
		fmt.Fprintf(w, "  %s=%d\n", k, s.ByStatus[k])
	}
}
