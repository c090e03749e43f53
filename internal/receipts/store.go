// Package receipts stores uploaded receipt files on local disk.
package receipts

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultURLPrefix is where stored receipts are served from.
const DefaultURLPrefix = "/static/receipts/"

const (
	timestampLayout = "20060102150405"
	maxNameAttempts = 1000
)

var allowedExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"pdf":  true,
}

// Store writes receipts into Dir and addresses them under URLPrefix.
type Store struct {
	Dir       string
	URLPrefix string

	now func() time.Time
}

func NewStore(dir string) *Store {
	return &Store{Dir: dir, URLPrefix: DefaultURLPrefix, now: time.Now}
}

// Init creates the receipts directory.
func (s *Store) Init() error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("create receipts directory: %w", err)
	}
	return nil
}

// Allowed reports whether name carries a permitted extension.
func Allowed(name string) bool {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	return allowedExtensions[strings.ToLower(ext)]
}

// Save stores the content under a timestamped, sanitized filename and returns its public path.
// Disallowed or empty names return "" and a nil error: the upload is silently skipped.
func (s *Store) Save(name string, r io.Reader) (string, error) {
	if name == "" || !Allowed(name) {
		slog.Debug("Receipt skipped", "filename", name)
		return "", nil
	}

	clean := SanitizeFilename(name)
	if clean == "" {
		return "", nil
	}

	now := time.Now
	if s.now != nil {
		now = s.now
	}
	stamp := now().Format(timestampLayout)

	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", fmt.Errorf("create receipts directory: %w", err)
	}

	f, filename, err := createUnique(s.Dir, stamp, clean)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(filepath.Join(s.Dir, filename))
		return "", fmt.Errorf("write receipt file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close receipt file: %w", err)
	}

	prefix := s.URLPrefix
	if prefix == "" {
		prefix = DefaultURLPrefix
	}
	return path.Join(prefix, filename), nil
}

// createUnique creates <stamp>_<name> in dir, or <stamp>_<n>_<name> when that is taken.
func createUnique(dir, stamp, name string) (*os.File, string, error) {
	for n := 0; n < maxNameAttempts; n++ {
		filename := stamp + "_" + name
		if n > 0 {
			filename = stamp + "_" + strconv.Itoa(n) + "_" + name
		}
		f, err := os.OpenFile(filepath.Join(dir, filename), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return f, filename, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("create receipt file: %w", err)
		}
	}
	return nil, "", fmt.Errorf("create receipt file: %d names taken for %s", maxNameAttempts, name)
}

// SanitizeFilename reduces name to a safe ASCII basename.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)

	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	for _, r := range folded {
		switch {
		case unicode.IsSpace(r):
			b.WriteByte('_')
		case r < unicode.MaxASCII && (r == '.' || r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "._")
}
