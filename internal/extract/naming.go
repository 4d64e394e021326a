package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const cropExt = ".png"

// NormalizeLabel strips non-alphanumeric characters and uppercases the rest.
func NormalizeLabel(label string) string {
	var sb strings.Builder
	for _, r := range label {
		if r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
			sb.WriteRune(r)
		}
	}
	return strings.ToUpper(sb.String())
}

// Namer hands out collision-free output filenames in one directory. The
// check-and-create sequence is a critical section: two boxes reserving the
// same label concurrently must not race onto the same name.
type Namer struct {
	mu       sync.Mutex
	dir      string
	prefixes map[string]string
}

// NewNamer creates a namer for the given output directory. prefixes maps
// vendor keys to filename prefixes; unknown vendors get no prefix.
func NewNamer(dir string, prefixes map[string]string) *Namer {
	return &Namer{dir: dir, prefixes: prefixes}
}

// Dir returns the output directory.
func (n *Namer) Dir() string {
	return n.dir
}

// Reserve picks the next free filename for a label and claims it by creating
// the file. Collisions get an incrementing numeric suffix (NAME_1, NAME_2, …).
// A label that is empty after normalization gets a timestamp-derived name.
// The caller must Abandon the reservation if it never writes the file.
func (n *Namer) Reserve(label, vendor string) (string, error) {
	base := NormalizeLabel(n.prefixes[vendor] + label)
	if base == "" {
		base = "CROP" + time.Now().Format("20060102150405")
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if err := os.MkdirAll(n.dir, 0o755); err != nil {
		return "", err
	}

	name := base
	for i := 1; ; i++ {
		path := filepath.Join(n.dir, name+cropExt)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			f.Close()
			return name + cropExt, nil
		}
		if !os.IsExist(err) {
			return "", err
		}
		name = fmt.Sprintf("%s_%d", base, i)
	}
}

// Abandon removes a reserved filename that was never written, so no partial
// output survives a skipped box.
func (n *Namer) Abandon(filename string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	_ = os.Remove(filepath.Join(n.dir, filename))
}
