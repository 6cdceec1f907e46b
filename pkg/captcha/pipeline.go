package captcha

import (
	"errors"
	"fmt"
	"image"
	"log"
	"strings"

	"github.com/google/uuid"
)

// Result is everything a single solve produced. On ErrNoParse the result is
// still returned so the text can be shown for manual entry.
type Result struct {
	ID         string
	Cleaned    *image.NRGBA
	Normalized *image.NRGBA
	Fragments  []string
	Corrected  string
	Answer     int64
	Solved     bool
}

// Solver wires the pipeline stages together. References and Tables are read
// once per solve, so concurrent solves see consistent snapshots.
type Solver struct {
	References *References
	Tables     TableSource
	Engine     Recognizer
}

// NewSolver returns a Solver. A nil refs means no background suppression.
func NewSolver(refs *References, tables TableSource, engine Recognizer) *Solver {
	if refs == nil {
		refs = NewReferences()
	}
	if tables == nil {
		tables = StaticTable{Table: DefaultCorrectionTable()}
	}
	return &Solver{References: refs, Tables: tables, Engine: engine}
}

// SolveBase64 decodes a base64 captcha payload and solves it.
func (s *Solver) SolveBase64(payload string) (*Result, error) {
	img, err := DecodeBase64(payload)
	if err != nil {
		log.Printf("captcha decode failed len=%d err=%v", len(payload), err)
		return nil, err
	}
	return s.SolveImage(img)
}

// SolveImage runs background suppression, normalization, recognition,
// correction and evaluation on img.
func (s *Solver) SolveImage(img image.Image) (*Result, error) {
	if s.Engine == nil {
		return nil, fmt.Errorf("%w: no engine configured", ErrRecognitionUnavailable)
	}
	refs := s.References.Snapshot()
	table := s.Tables.Snapshot()

	res := &Result{ID: uuid.NewString()}
	res.Cleaned = Clean(img, refs)
	res.Normalized = Normalize(res.Cleaned)

	fragments, err := s.Engine.Recognize(res.Normalized, AllowedCharacters)
	if err != nil {
		if !errors.Is(err, ErrRecognitionUnavailable) {
			err = fmt.Errorf("%w: %w", ErrRecognitionUnavailable, err)
		}
		log.Printf("captcha %s recognition failed: %v", res.ID, err)
		return nil, err
	}
	res.Fragments = fragments
	res.Corrected = Correct(fragments, table)

	answer, err := Solve(res.Corrected)
	if err != nil {
		log.Printf("captcha %s no parse refs=%d raw=%q corrected=%q", res.ID, len(refs), snippet(strings.Join(fragments, " "), 80), res.Corrected)
		return res, err
	}
	res.Answer = answer
	res.Solved = true
	log.Printf("captcha %s solved refs=%d raw=%q corrected=%q answer=%d", res.ID, len(refs), snippet(strings.Join(fragments, " "), 80), res.Corrected, answer)
	return res, nil
}
