// Package dao manages the local staging directory for files in transit
// between the storage service and the record database.
package dao

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/zap"
	"github.com/google/uuid"

	"github.com/officeours/drive-airtable-bridge/internal/web/bridge/model"
)

const (
	// tmpPrefix marks in-flight writes; sweeps skip fresh ones.
	tmpPrefix = ".tmp-"

	maxNameLen = 128
)

// Staging stages file bytes on local disk with a bounded retention window.
// Writes go to a temp name first and are renamed into place, so readers only
// ever see a fully written file or none.
type Staging struct {
	root      string
	retention time.Duration

	mu    sync.Mutex
	files map[string]*model.StagedFile

	mirror *Mirror
}

// NewStaging creates the staging root if needed.
func NewStaging(root string, retention time.Duration, opts ...StagingOption) (*Staging, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create staging dir `%s`", root)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(err, "resolve staging dir")
	}

	s := &Staging{
		root:      abs,
		retention: retention,
		files:     make(map[string]*model.StagedFile),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// StagingOption configures a Staging store.
type StagingOption func(*Staging)

// WithMirror also copies every staged file into an object-storage bucket.
// Mirror failures are logged, never fatal.
func WithMirror(m *Mirror) StagingOption {
	return func(s *Staging) { s.mirror = m }
}

// Root returns the absolute staging root directory.
func (s *Staging) Root() string { return s.root }

// SanitizeName reduces an externally supplied filename to a safe single path
// component. Returns model.ErrInvalidName when nothing safe remains.
func SanitizeName(name string) (string, error) {
	// strip any directory part, both separators
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == ' ', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		}
	}

	out := strings.Trim(b.String(), " .")
	if out == "" {
		return "", errors.WithStack(model.ErrInvalidName)
	}

	if len(out) > maxNameLen {
		ext := filepath.Ext(out)
		if len(ext) >= maxNameLen {
			ext = ""
		}
		out = out[:maxNameLen-len(ext)] + ext
	}

	return out, nil
}

// Stage writes content under a sanitized, collision-free name inside the
// staging root and returns the tracked entry.
func (s *Staging) Stage(ctx context.Context,
	content []byte, suggestedName, mimeType string) (*model.StagedFile, error) {
	logger := gmw.GetLogger(ctx)

	safe, err := SanitizeName(suggestedName)
	if err != nil {
		return nil, errors.Wrapf(err, "sanitize `%s`", suggestedName)
	}

	file, err := s.publish(content, suggestedName, safe, mimeType)
	if err != nil {
		return nil, err
	}

	if s.mirror != nil {
		// cache copy only, ignore error
		if err := s.mirror.Put(ctx, file.ID, content, mimeType); err != nil {
			logger.Warn("mirror staged file", zap.Error(err), zap.String("id", file.ID))
		}
	}

	logger.Debug("staged file",
		zap.String("id", file.ID),
		zap.Int64("size", file.SizeBytes))
	return file, nil
}

// publish picks a unique stored name and renames the written bytes into
// place. The lock spans name selection through the final rename, so two
// concurrent stages of the same name cannot both claim it.
func (s *Staging) publish(content []byte, suggestedName, safe, mimeType string) (*model.StagedFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// unique stored name, never overwrite an existing file
	stored := safe
	for {
		if _, err := os.Lstat(filepath.Join(s.root, stored)); os.IsNotExist(err) {
			break
		}

		stored = uuid.NewString()[:8] + "_" + safe
	}

	final := filepath.Join(s.root, stored)
	if !strings.HasPrefix(final, s.root+string(filepath.Separator)) {
		return nil, errors.WithStack(model.ErrInvalidName)
	}

	tmp := filepath.Join(s.root, tmpPrefix+uuid.NewString())
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		_ = os.Remove(tmp)
		if errors.Is(err, syscall.ENOSPC) {
			return nil, errors.Wrap(model.ErrStorageFull, err.Error())
		}

		return nil, errors.Wrap(err, "write staged file")
	}

	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return nil, errors.Wrap(err, "publish staged file")
	}

	file := &model.StagedFile{
		ID:           stored,
		LocalPath:    final,
		OriginalName: suggestedName,
		MimeType:     mimeType,
		SizeBytes:    int64(len(content)),
		CreatedAt:    time.Now(),
		Retention:    s.retention,
	}
	s.files[file.ID] = file

	return file, nil
}

// Get looks a staged file up by id. Expiry is not checked, callers may still
// finish an in-flight request with an expired entry.
func (s *Staging) Get(id string) (*model.StagedFile, error) {
	safe, err := SanitizeName(id)
	if err != nil || safe != id {
		return nil, errors.WithStack(model.ErrInvalidName)
	}

	s.mu.Lock()
	file, ok := s.files[id]
	s.mu.Unlock()
	if ok {
		return file, nil
	}

	// files staged by a previous process are still servable
	path := filepath.Join(s.root, id)
	info, err := os.Lstat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, errors.WithStack(model.ErrNotFound)
	}

	return &model.StagedFile{
		ID:           id,
		LocalPath:    path,
		OriginalName: id,
		SizeBytes:    info.Size(),
		CreatedAt:    info.ModTime(),
		Retention:    s.retention,
	}, nil
}

// List returns metadata for every staged file, oldest first.
func (s *Staging) List() []*model.StagedFile {
	s.mu.Lock()
	out := make([]*model.StagedFile, 0, len(s.files))
	for _, f := range s.files {
		out = append(out, f)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Sweep removes every file past its retention window at now, including
// orphans left by a previous process. Best-effort: one failed removal does
// not abort the rest.
func (s *Staging) Sweep(ctx context.Context, now time.Time) int {
	logger := gmw.GetLogger(ctx)

	s.mu.Lock()
	tracked := make(map[string]*model.StagedFile, len(s.files))
	for id, f := range s.files {
		tracked[id] = f
	}
	s.mu.Unlock()

	entries, err := os.ReadDir(s.root)
	if err != nil {
		logger.Error("read staging dir", zap.Error(err))
		return 0
	}

	var removed int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		var expiry time.Time
		if f, ok := tracked[name]; ok {
			expiry = f.ExpiresAt()
		} else {
			// orphan or in-flight temp file, judge by mtime
			info, err := entry.Info()
			if err != nil {
				continue
			}
			expiry = info.ModTime().Add(s.retention)
		}

		if expiry.After(now) {
			continue
		}

		if err := os.Remove(filepath.Join(s.root, name)); err != nil && !os.IsNotExist(err) {
			logger.Warn("sweep staged file", zap.Error(err), zap.String("name", name))
			continue
		}

		s.mu.Lock()
		delete(s.files, name)
		s.mu.Unlock()
		removed++
	}

	if removed > 0 {
		logger.Info("swept staged files", zap.Int("removed", removed))
	}
	return removed
}

// RemoveAll clears the whole staging directory. Same best-effort semantics
// as Sweep.
func (s *Staging) RemoveAll(ctx context.Context) int {
	logger := gmw.GetLogger(ctx)

	entries, err := os.ReadDir(s.root)
	if err != nil {
		logger.Error("read staging dir", zap.Error(err))
		return 0
	}

	var removed int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if err := os.Remove(filepath.Join(s.root, entry.Name())); err != nil && !os.IsNotExist(err) {
			logger.Warn("remove staged file", zap.Error(err), zap.String("name", entry.Name()))
			continue
		}

		removed++
	}

	s.mu.Lock()
	s.files = make(map[string]*model.StagedFile)
	s.mu.Unlock()

	return removed
}
