package logging

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// RollingConfig configures rolling log behavior
type RollingConfig struct {
	MaxSize     int64  // Max size in bytes before rotation
	MaxBackups  int    // Max number of rotated files to keep
	Compress    bool   // Gzip rotated files
	BaseName    string // Base log file name
	LogDir      string // Directory for logs
	TimePattern string // Date layout; a new file starts when it changes
}

// DefaultRollingConfig returns sensible defaults
func DefaultRollingConfig() RollingConfig {
	return RollingConfig{
		MaxSize:     10 * 1024 * 1024,
		MaxBackups:  5,
		Compress:    true,
		BaseName:    "infra-nli",
		LogDir:      "logs",
		TimePattern: "2006-01-02",
	}
}

// RollingWriter is a zapcore.WriteSyncer that starts a new JSON-lines file
// each day or when the current file would exceed MaxSize.
type RollingWriter struct {
	mu   sync.Mutex
	cfg  RollingConfig
	file *os.File
	size int64
	date string
	seq  int
	now  func() time.Time
}

// NewRollingWriter creates the log directory and opens the current file
func NewRollingWriter(cfg RollingConfig) (*RollingWriter, error) {
	return newRollingWriter(cfg, time.Now)
}

func newRollingWriter(cfg RollingConfig, now func() time.Time) (*RollingWriter, error) {
	if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	rw := &RollingWriter{cfg: cfg, now: now}
	if err := rw.open(); err != nil {
		return nil, err
	}
	return rw, nil
}

// Write implements io.Writer
func (rw *RollingWriter) Write(p []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.file == nil {
		return 0, os.ErrClosed
	}
	if rw.shouldRotate(len(p)) {
		if err := rw.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := rw.file.Write(p)
	rw.size += int64(n)
	return n, err
}

// Sync flushes the current file to disk
func (rw *RollingWriter) Sync() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.file == nil {
		return nil
	}
	return rw.file.Sync()
}

// Close closes the current file
func (rw *RollingWriter) Close() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.file == nil {
		return nil
	}
	err := rw.file.Close()
	rw.file = nil
	return err
}

// Path returns the file currently written to
func (rw *RollingWriter) Path() string {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.currentPath()
}

func (rw *RollingWriter) shouldRotate(n int) bool {
	if rw.now().Format(rw.cfg.TimePattern) != rw.date {
		return true
	}
	return rw.cfg.MaxSize > 0 && rw.size > 0 && rw.size+int64(n) > rw.cfg.MaxSize
}

func (rw *RollingWriter) rotate() error {
	old := rw.currentPath()
	if err := rw.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}

	if date := rw.now().Format(rw.cfg.TimePattern); date == rw.date {
		rw.seq++
	} else {
		rw.seq = 0
	}

	if rw.cfg.Compress {
		if err := compressFile(old); err != nil {
			return fmt.Errorf("failed to compress %s: %w", old, err)
		}
	}
	if err := rw.open(); err != nil {
		return err
	}
	rw.prune()
	return nil
}

func (rw *RollingWriter) open() error {
	rw.date = rw.now().Format(rw.cfg.TimePattern)
	path := rw.currentPath()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}

	rw.file = f
	rw.size = info.Size()
	return nil
}

func (rw *RollingWriter) currentPath() string {
	name := fmt.Sprintf("%s-%s.jsonl", rw.cfg.BaseName, rw.date)
	if rw.seq > 0 {
		name = fmt.Sprintf("%s-%s.%d.jsonl", rw.cfg.BaseName, rw.date, rw.seq)
	}
	return filepath.Join(rw.cfg.LogDir, name)
}

// prune keeps the newest MaxBackups rotated files
func (rw *RollingWriter) prune() {
	if rw.cfg.MaxBackups <= 0 {
		return
	}
	matches, err := filepath.Glob(filepath.Join(rw.cfg.LogDir, rw.cfg.BaseName+"-*"))
	if err != nil {
		return
	}

	current := rw.currentPath()
	type backup struct {
		path string
		mod  time.Time
	}
	var backups []backup
	for _, m := range matches {
		if m == current {
			continue
		}
		if info, err := os.Stat(m); err == nil {
			backups = append(backups, backup{m, info.ModTime()})
		}
	}
	sort.Slice(backups, func(i, j int) bool { return backups[i].mod.After(backups[j].mod) })

	for i := rw.cfg.MaxBackups; i < len(backups); i++ {
		os.Remove(backups[i].path)
	}
}

func compressFile(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	gzPath := path + ".gz"
	dst, err := os.Create(gzPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	gzw := gzip.NewWriter(dst)
	gzw.Name = filepath.Base(path)
	if _, err := io.Copy(gzw, src); err != nil {
		os.Remove(gzPath)
		return err
	}
	if err := gzw.Close(); err != nil {
		os.Remove(gzPath)
		return err
	}
	return os.Remove(path)
}
