// Package batch solves every captcha image in a directory with a worker pool.
package batch

import (
	"context"
	"log"
	"path/filepath"
	"runtime"
	"sync"

	"capsolve/pkg/captcha"
)

// Outcome is the result of solving one file. Err is nil only when the captcha
// was solved; on captcha.ErrNoParse Result is still set.
type Outcome struct {
	File   string
	Result *captcha.Result
	Err    error
}

// Run solves the supported image files of dir in parallel and returns their
// outcomes in file-name order. Files not yet started when ctx is cancelled are
// reported with ctx.Err().
func Run(ctx context.Context, dir string, solver *captcha.Solver, workers int) []Outcome {
	names := captcha.ListImageFiles(dir)
	return RunFiles(ctx, dir, names, solver, workers)
}

// RunFiles is Run over an explicit list of file names inside dir.
func RunFiles(ctx context.Context, dir string, names []string, solver *captcha.Solver, workers int) []Outcome {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	out := make([]Outcome, len(names))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				out[idx] = solveFile(dir, names[idx], solver)
			}
		}()
	}
	next := 0
feed:
	for ; next < len(names); next++ {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- next:
		}
	}
	close(jobs)
	wg.Wait()
	for i := next; i < len(names); i++ {
		out[i] = Outcome{File: names[i], Err: ctx.Err()}
	}
	return out
}

func solveFile(dir, name string, solver *captcha.Solver) Outcome {
	o := Outcome{File: name}
	img, err := captcha.DecodeFile(filepath.Join(dir, name))
	if err != nil {
		log.Printf("batch decode failed file=%s err=%v", name, err)
		o.Err = err
		return o
	}
	o.Result, o.Err = solver.SolveImage(img)
	return o
}

// Summary counts outcomes by kind.
type Summary struct {
	Total, Solved, NoParse, Failed int
}

// Summarize tallies outcomes.
func Summarize(outcomes []Outcome) Summary {
	var s Summary
	for _, o := range outcomes {
		s.Total++
		switch {
		case o.Err == nil:
			s.Solved++
		case o.Result != nil:
			s.NoParse++
		default:
			s.Failed++
		}
	}
	return s
}
