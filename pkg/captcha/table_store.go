package captcha

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"unicode/utf8"
)

// TableSource supplies the correction table a solve should use.
type TableSource interface {
	Snapshot() *CorrectionTable
}

// StaticTable is a TableSource that always returns the same table.
type StaticTable struct{ Table *CorrectionTable }

// Snapshot implements TableSource.
func (s StaticTable) Snapshot() *CorrectionTable { return s.Table }

// tableFile is the on-disk document.
type tableFile struct {
	Characters map[string]string `json:"characters"`
	Strings    map[string]string `json:"strings"`
}

// TableStore persists a CorrectionTable as a JSON document. Readers get the
// installed table without locking; learning rewrites the whole file and only
// then installs the new table.
type TableStore struct {
	path string
	mu   sync.Mutex
	cur  atomic.Pointer[CorrectionTable]
}

// OpenTableStore loads the table at path. A missing file is created from the
// default table.
func OpenTableStore(path string) (*TableStore, error) {
	s := &TableStore{path: path}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		t := DefaultCorrectionTable()
		if err := writeTableFile(path, t); err != nil {
			return nil, err
		}
		s.cur.Store(t)
		log.Printf("corrections seeded path=%s characters=%d", path, len(t.Characters))
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read corrections: %w", err)
	}
	t, err := parseTable(data)
	if err != nil {
		return nil, fmt.Errorf("parse corrections %s: %w", path, err)
	}
	s.cur.Store(t)
	log.Printf("corrections loaded path=%s characters=%d strings=%d", path, len(t.Characters), len(t.Strings))
	return s, nil
}

// Path returns the backing file path.
func (s *TableStore) Path() string { return s.path }

// Snapshot returns the installed table. Callers must not modify it.
func (s *TableStore) Snapshot() *CorrectionTable { return s.cur.Load() }

// Learn records original -> confirmed, rewrites the file and installs the new
// table. It reports whether anything changed.
func (s *TableStore) Learn(original, confirmed string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, changed := s.cur.Load().WithLearned(original, confirmed)
	if !changed {
		return false, nil
	}
	if err := writeTableFile(s.path, next); err != nil {
		return false, err
	}
	s.cur.Store(next)
	log.Printf("correction learned original=%q confirmed=%q", original, confirmed)
	return true, nil
}

// parseTable accepts the structured document as well as a flat key/value
// object. Loaded character entries are layered over the defaults.
func parseTable(data []byte) (*CorrectionTable, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	var doc tableFile
	_, hasChars := probe["characters"]
	_, hasStrings := probe["strings"]
	if hasChars || hasStrings {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	} else {
		var flat map[string]string
		if err := json.Unmarshal(data, &flat); err != nil {
			return nil, err
		}
		doc.Characters = map[string]string{}
		doc.Strings = map[string]string{}
		for k, v := range flat {
			if utf8.RuneCountInString(k) == 1 && utf8.RuneCountInString(v) == 1 {
				doc.Characters[k] = v
			} else {
				doc.Strings[k] = v
			}
		}
	}
	t := DefaultCorrectionTable()
	for k, v := range doc.Characters {
		kr, _ := utf8.DecodeRuneInString(k)
		vr, _ := utf8.DecodeRuneInString(v)
		if utf8.RuneCountInString(k) != 1 || utf8.RuneCountInString(v) != 1 {
			log.Printf("corrections: ignoring character entry %q -> %q", k, v)
			continue
		}
		t.Characters[kr] = vr
	}
	for k, v := range doc.Strings {
		t.Strings[k] = v
	}
	return t, nil
}

func writeTableFile(path string, t *CorrectionTable) error {
	doc := tableFile{
		Characters: make(map[string]string, len(t.Characters)),
		Strings:    make(map[string]string, len(t.Strings)),
	}
	for k, v := range t.Characters {
		doc.Characters[string(k)] = string(v)
	}
	for k, v := range t.Strings {
		doc.Strings[k] = v
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode corrections: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".corrections-*.json")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write corrections: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("sync corrections: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("install corrections: %w", err)
	}
	return nil
}
