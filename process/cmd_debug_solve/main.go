package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/disintegration/imaging"

	"capsolve/pkg/captcha"
	"capsolve/pkg/config"
)

func main() {
	f := flag.String("file", "", "captcha image file")
	b64 := flag.String("b64", "", "base64 captcha payload (or @path to a file holding it)")
	out := flag.String("out", "", "optional path to save the normalized image")
	flag.Parse()
	if *f == "" && *b64 == "" {
		log.Fatalf("-file or -b64 required")
	}

	cfg := config.Load()
	solver, _, err := cfg.OpenSolver()
	if err != nil {
		log.Fatalf("setup: %v", err)
	}

	var res *captcha.Result
	if *f != "" {
		img, derr := captcha.DecodeFile(*f)
		if derr != nil {
			log.Fatalf("decode: %v", derr)
		}
		res, err = solver.SolveImage(img)
	} else {
		payload := *b64
		if strings.HasPrefix(payload, "@") {
			data, rerr := os.ReadFile(payload[1:])
			if rerr != nil {
				log.Fatalf("read payload: %v", rerr)
			}
			payload = string(data)
		}
		res, err = solver.SolveBase64(payload)
	}
	if res != nil && *out != "" {
		if serr := imaging.Save(res.Normalized, *out); serr != nil {
			log.Printf("save normalized: %v", serr)
		}
	}
	if err != nil && res == nil {
		log.Fatalf("solve error: %v", err)
	}
	fmt.Printf("raw=%q corrected=%q", res.Fragments, res.Corrected)
	if err != nil {
		fmt.Printf(" answer=none err=%v\n", err)
		os.Exit(1)
	}
	fmt.Printf(" answer=%d\n", res.Answer)
}
