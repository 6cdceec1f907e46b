// Package solvedir solves a directory of saved captcha images, optionally
// recording every outcome as a SolveAttempt and moving solved files aside.
package solvedir

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"capsolve/models"
	"capsolve/pkg/captcha"
	"capsolve/process/batch"
)

// Options controls Run.
type Options struct {
	Dir     string
	Workers int
	// DB, when set, receives one SolveAttempt per file owned by UserID.
	DB     *gorm.DB
	UserID uint
	// Move relocates solved files to Dir/solved.
	Move bool
	Out  io.Writer
}

// Run solves every image in opts.Dir and reports one line per file.
func Run(ctx context.Context, solver *captcha.Solver, opts Options) (batch.Summary, error) {
	if _, err := os.Stat(opts.Dir); err != nil {
		return batch.Summary{}, fmt.Errorf("read dir: %w", err)
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	outcomes := batch.Run(ctx, opts.Dir, solver, opts.Workers)
	for _, o := range outcomes {
		captchaID := strings.TrimSuffix(o.File, filepath.Ext(o.File))
		switch {
		case o.Err == nil:
			fmt.Fprintf(out, "%s\tsolved\t%s\t%d\n", o.File, o.Result.Corrected, o.Result.Answer)
		case o.Result != nil:
			fmt.Fprintf(out, "%s\tno_parse\t%s\t-\n", o.File, o.Result.Corrected)
		default:
			fmt.Fprintf(out, "%s\terror\t%v\t-\n", o.File, o.Err)
		}
		if opts.DB != nil {
			attempt := models.NewSolveAttempt(opts.UserID, captchaID, o.Result, o.Err)
			if err := opts.DB.Create(&attempt).Error; err != nil {
				log.Printf("failed to record attempt %s: %v", o.File, err)
			}
		}
		if opts.Move && o.Err == nil {
			if err := moveToSolved(opts.Dir, o.File); err != nil {
				log.Printf("WARN failed to move solved file %s: %v", o.File, err)
			}
		}
	}
	return batch.Summarize(outcomes), nil
}

// moveToSolved moves dir/name to dir/solved/name, falling back to copy+remove
// when a rename is not possible.
func moveToSolved(dir, name string) error {
	solvedDir := filepath.Join(dir, "solved")
	if err := os.MkdirAll(solvedDir, 0o755); err != nil {
		return err
	}
	src := filepath.Join(dir, name)
	dst := filepath.Join(solvedDir, name)
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	outFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(outFile, in); err != nil {
		_ = outFile.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := outFile.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
