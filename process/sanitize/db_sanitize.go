package sanitize

import (
	"context"
	"flag"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"capsolve/models"
	"capsolve/process/report"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultTables are the application tables a full reset truncates.
const DefaultTables = "roles,users,solve_attempts,backgrounds,refresh_tokens"

var nameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ParseTables splits a comma-separated list and drops anything that is not a
// plain identifier.
func ParseTables(list string) []string {
	parts := strings.Split(list, ",")
	wanted := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !nameRe.MatchString(p) {
			log.Printf("warning: skipping invalid table name '%s'", p)
			continue
		}
		wanted = append(wanted, p)
	}
	return wanted
}

// Run executes the db_sanitize CLI behavior. Exported so a small cmd/main can call it.
//
// With -prune-days it deletes old unconfirmed solve attempts and expired or
// revoked refresh tokens. Otherwise it truncates the listed tables.
func Run() {
	var (
		dryRun    = flag.Bool("dry-run", true, "Don't perform destructive actions; show what would be done")
		yes       = flag.Bool("yes", false, "Confirm destructive action (required to actually truncate)")
		reseed    = flag.Bool("reseed", false, "After truncation, reseed roles and the admin user")
		tables    = flag.String("tables", DefaultTables, "Comma-separated list of tables to truncate")
		pruneDays = flag.Int("prune-days", 0, "Instead of truncating, delete unconfirmed attempts older than this many days")
	)
	flag.Parse()

	gdb := report.MustDBFromEnv()

	if *pruneDays > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -*pruneDays)
		if err := prune(gdb, cutoff, *dryRun || !*yes); err != nil {
			log.Fatalf("prune failed: %v", err)
		}
		return
	}

	existing := []string{}
	// check presence individually to avoid any injection risk
	for _, t := range ParseTables(*tables) {
		var cnt int64
		if err := gdb.Raw("SELECT count(*) FROM pg_tables WHERE schemaname = 'public' AND tablename = ?", t).Scan(&cnt).Error; err != nil {
			log.Fatalf("failed to query pg_tables for %s: %v", t, err)
		}
		if cnt > 0 {
			existing = append(existing, t)
		} else {
			log.Printf("info: table %s not found, skipping", t)
		}
	}
	if len(existing) == 0 {
		log.Println("no requested tables present in the database; nothing to do")
		return
	}

	fmt.Println("Tables considered for truncation:")
	for _, t := range existing {
		fmt.Printf(" - %s\n", t)
	}

	if *dryRun {
		fmt.Println("dry-run enabled; no changes will be made. Use --dry-run=false --yes to execute.")
		return
	}
	if !*yes {
		fmt.Println("Destructive operation. Pass --yes to confirm execution. Aborting.")
		return
	}

	stmt := TruncateStatement(existing)
	log.Printf("Executing: %s", stmt)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := gdb.WithContext(ctx).Exec(stmt).Error; err != nil {
		log.Fatalf("truncate failed: %v", err)
	}
	log.Println("Truncate completed.")

	if *reseed {
		if err := reseedRolesAndAdmin(gdb); err != nil {
			log.Fatalf("reseed failed: %v", err)
		}
	}
}

// TruncateStatement quotes validated table names into a single TRUNCATE.
func TruncateStatement(tables []string) string {
	quoted := make([]string, 0, len(tables))
	for _, t := range tables {
		quoted = append(quoted, fmt.Sprintf("\"%s\"", t))
	}
	return fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(quoted, ", "))
}

func prune(gdb *gorm.DB, cutoff time.Time, dry bool) error {
	attempts := gdb.Model(&models.SolveAttempt{}).Where("created_at < ? AND confirmed = ?", cutoff, false)
	tokens := gdb.Model(&models.RefreshToken{}).Where("expires_at < ? OR revoked = ?", time.Now().UTC(), true)
	if dry {
		var na, nt int64
		if err := attempts.Count(&na).Error; err != nil {
			return err
		}
		if err := tokens.Count(&nt).Error; err != nil {
			return err
		}
		fmt.Printf("would delete %d attempts before %s and %d refresh tokens (pass --dry-run=false --yes)\n", na, cutoff.Format("2006-01-02"), nt)
		return nil
	}
	res := gdb.Where("created_at < ? AND confirmed = ?", cutoff, false).Delete(&models.SolveAttempt{})
	if res.Error != nil {
		return fmt.Errorf("delete attempts: %w", res.Error)
	}
	log.Printf("deleted %d attempts", res.RowsAffected)
	res = gdb.Where("expires_at < ? OR revoked = ?", time.Now().UTC(), true).Delete(&models.RefreshToken{})
	if res.Error != nil {
		return fmt.Errorf("delete refresh tokens: %w", res.Error)
	}
	log.Printf("deleted %d refresh tokens", res.RowsAffected)
	return nil
}

func reseedRolesAndAdmin(gdb *gorm.DB) error {
	roles := []models.Role{
		{Name: models.RoleAdministrator, Description: "full access"},
		{Name: models.RoleOperator, Description: "solves and confirms captchas"},
	}
	for _, r := range roles {
		if err := gdb.Where("name = ?", r.Name).FirstOrCreate(&r).Error; err != nil {
			return fmt.Errorf("failed to ensure role %s: %w", r.Name, err)
		}
	}
	var role models.Role
	if err := gdb.Where("name = ?", models.RoleAdministrator).First(&role).Error; err != nil {
		return fmt.Errorf("failed to find administrator role: %w", err)
	}
	rid := role.ID
	hashed, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	admin := models.User{Username: "admin", HashedPassword: hashed, RoleID: &rid}
	if err := gdb.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	return nil
}
