package bgwatch

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"capsolve/pkg/captcha"
)

func TestWatcherReloadsOnNewImage(t *testing.T) {
	dir := t.TempDir()
	if err := imaging.Save(imaging.New(110, 60, color.NRGBA{1, 1, 1, 255}), filepath.Join(dir, "first.png")); err != nil {
		t.Fatal(err)
	}
	refs := captcha.NewReferences()
	w := New(dir, refs)
	w.Debounce = 50 * time.Millisecond
	reloads := make(chan int, 16)
	w.OnReload = func(n int) { reloads <- n }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	waitFor(t, reloads, 1)

	second := filepath.Join(dir, "second.png")
	if err := imaging.Save(imaging.New(110, 60, color.NRGBA{2, 2, 2, 255}), second); err != nil {
		t.Fatal(err)
	}
	waitFor(t, reloads, 2)

	if err := os.Remove(second); err != nil {
		t.Fatal(err)
	}
	waitFor(t, reloads, 1)
	if refs.Len() != 1 {
		t.Fatalf("expected 1 reference got %d", refs.Len())
	}
}

func waitFor(t *testing.T, reloads <-chan int, want int) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case n := <-reloads:
			if n == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %d references", want)
		}
	}
}
