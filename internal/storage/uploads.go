// Package storage is the local-disk upload facility. The session core only
// ever sees the opaque file refs it hands out.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var ErrNotVideo = errors.New("not a video file")

type UploadedVideo struct {
	FileRef  string `json:"fileRef"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
}

// UploadStore writes uploaded videos under one directory, each named by a
// fresh uuid plus the sniffed extension.
type UploadStore struct {
	dir string
}

func NewUploadStore(dir string) (*UploadStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &UploadStore{dir: dir}, nil
}

// Save sniffs the content type from the stream head and stores the file only
// if it is a video. The original file name is echoed back for display; it is
// never used on disk.
func (s *UploadStore) Save(src io.Reader, origName string) (UploadedVideo, error) {
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return UploadedVideo{}, fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	// DetectReader consumes the stream head, the tee keeps those bytes in
	// the file.
	mt, err := mimetype.DetectReader(io.TeeReader(src, tmp))
	if err != nil {
		return UploadedVideo{}, fmt.Errorf("sniff upload: %w", err)
	}
	if !strings.HasPrefix(mt.String(), "video/") {
		log.Warn().Str("module", "storage").Str("mime", mt.String()).Str("name", origName).Msg("rejected non-video upload")
		return UploadedVideo{}, ErrNotVideo
	}
	if _, err := io.Copy(tmp, src); err != nil {
		return UploadedVideo{}, fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return UploadedVideo{}, fmt.Errorf("close upload: %w", err)
	}

	ref := uuid.NewString() + mt.Extension()
	dst := filepath.Join(s.dir, ref)
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return UploadedVideo{}, fmt.Errorf("store upload: %w", err)
	}
	info, err := os.Stat(dst)
	if err != nil {
		return UploadedVideo{}, fmt.Errorf("stat upload: %w", err)
	}
	log.Info().Str("module", "storage").Str("ref", ref).Str("name", origName).Int64("size", info.Size()).Msg("stored upload")
	return UploadedVideo{FileRef: ref, FileName: origName, FileSize: info.Size()}, nil
}

// List returns the refs currently on disk.
func (s *UploadStore) List() ([]UploadedVideo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	out := make([]UploadedVideo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, UploadedVideo{FileRef: e.Name(), FileName: e.Name(), FileSize: info.Size()})
	}
	return out, nil
}

// Exists reports whether ref names a stored upload. Refs carrying path
// separators are rejected outright.
func (s *UploadStore) Exists(ref string) bool {
	if ref == "" || filepath.Base(ref) != ref {
		return false
	}
	if strings.HasPrefix(ref, ".") {
		return false
	}
	info, err := os.Stat(filepath.Join(s.dir, ref))
	return err == nil && !info.IsDir()
}
