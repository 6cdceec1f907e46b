package captcha

import (
	"image"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
)

// References holds the operator-supplied background bitmaps. The installed
// slice is never mutated; Replace swaps in a new one so a solve that took a
// Snapshot keeps a consistent view.
type References struct {
	set atomic.Pointer[[]*image.NRGBA]
}

// NewReferences returns a set holding imgs (converted to canonical resolution).
func NewReferences(imgs ...image.Image) *References {
	r := &References{}
	r.Replace(imgs)
	return r
}

// Snapshot returns the currently installed reference bitmaps.
func (r *References) Snapshot() []*image.NRGBA {
	if p := r.set.Load(); p != nil {
		return *p
	}
	return nil
}

// Len reports the number of installed references.
func (r *References) Len() int { return len(r.Snapshot()) }

// Replace installs a new reference set.
func (r *References) Replace(imgs []image.Image) {
	canon := make([]*image.NRGBA, 0, len(imgs))
	for _, img := range imgs {
		if img == nil {
			continue
		}
		canon = append(canon, ToCanonical(img))
	}
	r.set.Store(&canon)
}

// LoadReferenceFiles decodes every path independently. A path that fails to
// decode is logged and reported in errs; the remaining paths still load.
func LoadReferenceFiles(paths []string) (imgs []image.Image, errs []error) {
	for _, p := range paths {
		img, err := DecodeFile(p)
		if err != nil {
			log.Printf("background skipped path=%s err=%v", p, err)
			errs = append(errs, err)
			continue
		}
		imgs = append(imgs, img)
	}
	return imgs, errs
}

// LoadDir replaces the set with every supported image found in dir.
func (r *References) LoadDir(dir string) (int, []error) {
	names := ListImageFiles(dir)
	paths := make([]string, 0, len(names))
	for _, n := range names {
		paths = append(paths, filepath.Join(dir, n))
	}
	imgs, errs := LoadReferenceFiles(paths)
	r.Replace(imgs)
	log.Printf("backgrounds loaded dir=%s count=%d failed=%d", dir, len(imgs), len(errs))
	return len(imgs), errs
}

// ListImageFiles returns the names of supported image files in dir, sorted so
// that reference order is stable across reloads.
func ListImageFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !IsSupportedImage(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

// IsSupportedImage reports whether name has an image extension we can decode.
func IsSupportedImage(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif":
		return true
	}
	return false
}
