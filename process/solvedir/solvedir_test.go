package solvedir

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"capsolve/pkg/captcha"
)

func TestRunMovesSolvedFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"101.png", "102.png"} {
		if err := imaging.Save(imaging.New(110, 60, color.NRGBA{200, 200, 200, 255}), filepath.Join(dir, name)); err != nil {
			t.Fatal(err)
		}
	}
	calls := 0
	engine := captcha.RecognizerFunc(func(image.Image, string) ([]string, error) {
		calls++
		return []string{"4", "+", "S"}, nil
	})
	var buf bytes.Buffer
	sum, err := Run(context.Background(), captcha.NewSolver(nil, nil, engine), Options{Dir: dir, Workers: 1, Move: true, Out: &buf})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Solved != 2 || calls != 2 {
		t.Fatalf("unexpected summary %+v calls=%d", sum, calls)
	}
	if !strings.Contains(buf.String(), "101.png\tsolved\t4+5\t9") {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
	for _, name := range []string{"101.png", "102.png"} {
		if _, err := os.Stat(filepath.Join(dir, "solved", name)); err != nil {
			t.Fatalf("%s not moved: %v", name, err)
		}
	}
}

func TestRunMissingDir(t *testing.T) {
	_, err := Run(context.Background(), captcha.NewSolver(nil, nil, nil), Options{Dir: filepath.Join(t.TempDir(), "nope")})
	if err == nil {
		t.Fatalf("expected error")
	}
}
