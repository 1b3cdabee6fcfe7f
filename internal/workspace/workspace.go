// Package workspace manages the on-disk directory a site is generated into.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/richhaase/agentic-site-builder/internal/domain"
)

// ErrSiteExists is returned when the site directory already exists and force is off.
var ErrSiteExists = errors.New("site directory already exists")

// ErrSecurityViolation is matched by every *SecurityError.
var ErrSecurityViolation = errors.New("security violation")

// DefaultReservedDirs are system directories a site may never be written into.
var DefaultReservedDirs = []string{"/etc", "/sys", "/proc", "/dev", "/root", "/boot"}

// SecurityError describes a rejected path.
type SecurityError struct {
	Path   string
	Reason string
}

func (e *SecurityError) Error() string {
	return fmt.Sprintf("security violation: %s: %q", e.Reason, e.Path)
}

// Is reports whether target is ErrSecurityViolation.
func (e *SecurityError) Is(target error) bool {
	return target == ErrSecurityViolation
}

// Options configures Claim.
type Options struct {
	// Force wipes an existing site directory instead of failing.
	Force bool
	// ReservedDirs overrides DefaultReservedDirs when non-nil.
	ReservedDirs []string
}

// Site is a claimed site directory. It is safe for concurrent use.
type Site struct {
	root     string
	reserved []string

	mu    sync.Mutex
	files map[string]fileStat
}

type fileStat struct {
	bytes int
	lines int
}

var unsafeName = regexp.MustCompile(`[^a-z0-9.-]+`)

// DirName turns a site name into a directory name.
func DirName(name string) string {
	slug := unsafeName.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	slug = strings.Trim(slug, "-.")
	if slug == "" {
		return "site"
	}
	return slug
}

// Claim creates root/DirName(name) and returns the Site for it. The directory
// is created with os.Mkdir, so exactly one caller can claim a name. With
// Force the existing directory is removed first.
func Claim(root, name string, opts Options) (*Site, error) {
	reserved := opts.ReservedDirs
	if reserved == nil {
		reserved = DefaultReservedDirs
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sites root: %w", err)
	}
	dir := filepath.Join(absRoot, DirName(name))
	if r := reservedParent(dir, reserved); r != "" {
		return nil, &SecurityError{Path: dir, Reason: "inside reserved directory " + r}
	}

	if err := os.MkdirAll(absRoot, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create sites root: %w", err)
	}
	if opts.Force {
		if err := os.RemoveAll(dir); err != nil {
			return nil, fmt.Errorf("failed to remove existing site %s: %w", dir, err)
		}
	}
	if err := os.Mkdir(dir, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrSiteExists, dir)
		}
		return nil, fmt.Errorf("failed to create site directory: %w", err)
	}

	return &Site{root: dir, reserved: reserved, files: make(map[string]fileStat)}, nil
}

// Open returns a Site for an existing directory without claiming it.
func Open(dir string, reservedDirs []string) (*Site, error) {
	if reservedDirs == nil {
		reservedDirs = DefaultReservedDirs
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve site path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open site: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("failed to open site: %s is not a directory", abs)
	}
	return &Site{root: abs, reserved: reservedDirs, files: make(map[string]fileStat)}, nil
}

// Root returns the absolute site directory.
func (s *Site) Root() string {
	return s.root
}

// Resolve maps a site-relative path, optionally prefixed with "./", to an
// absolute path inside the site. Paths that escape the site are rejected.
func (s *Site) Resolve(rel string) (string, error) {
	if rel == "" {
		return "", &SecurityError{Path: rel, Reason: "empty path"}
	}
	if strings.ContainsAny(rel, "~$") {
		return "", &SecurityError{Path: rel, Reason: "shell expansion characters"}
	}
	if filepath.IsAbs(rel) {
		return "", &SecurityError{Path: rel, Reason: "absolute path"}
	}
	clean := filepath.Clean(strings.TrimPrefix(filepath.ToSlash(rel), "./"))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", &SecurityError{Path: rel, Reason: "path traversal"}
	}
	abs := filepath.Join(s.root, clean)
	if inside, err := filepath.Rel(s.root, abs); err != nil || strings.HasPrefix(inside, "..") {
		return "", &SecurityError{Path: rel, Reason: "path traversal"}
	}
	if r := reservedParent(abs, s.reserved); r != "" {
		return "", &SecurityError{Path: rel, Reason: "inside reserved directory " + r}
	}
	return abs, nil
}

// WriteFile writes content to a site-relative path, creating parent
// directories. It returns the absolute path written.
func (s *Site) WriteFile(rel, content string) (string, error) {
	abs, err := s.Resolve(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", rel, err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", rel, err)
	}

	s.mu.Lock()
	s.files[abs] = fileStat{bytes: len(content), lines: countLines(content)}
	s.mu.Unlock()
	return abs, nil
}

// ReadFile reads a site-relative path.
func (s *Site) ReadFile(rel string) (string, error) {
	abs, err := s.Resolve(rel)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", rel, err)
	}
	return string(data), nil
}

// Stats totals the files written through this Site. Rewrites of the same
// path count once with their latest size.
func (s *Site) Stats() domain.WriteStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	var st domain.WriteStats
	for _, f := range s.files {
		st.Files++
		st.Bytes += f.bytes
		st.Lines += f.lines
	}
	return st
}

// Written lists the site-relative paths written so far, sorted.
func (s *Site) Written() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.files))
	for abs := range s.files {
		rel, err := filepath.Rel(s.root, abs)
		if err != nil {
			continue
		}
		out = append(out, filepath.ToSlash(rel))
	}
	sort.Strings(out)
	return out
}

func reservedParent(path string, reserved []string) string {
	for _, r := range reserved {
		r = filepath.Clean(r)
		if path == r || strings.HasPrefix(path, r+string(filepath.Separator)) {
			return r
		}
	}
	return ""
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
