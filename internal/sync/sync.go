package sync

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	"github.com/lekha-app/lekha/internal/backup"
	"github.com/lekha-app/lekha/internal/common"
)

// Remote is the storage side of a sync target.
type Remote interface {
	Upload(ctx context.Context, data []byte) error
	Download(ctx context.Context) ([]byte, error)
}

// Reauthenticator re-establishes credentials and returns a fresh remote.
// It is invoked at most once per operation.
type Reauthenticator func(ctx context.Context) (Remote, error)

// Service pushes and pulls full backups against a remote.
type Service struct {
	backups *backup.Service
	remote  Remote
	reauth  Reauthenticator
}

// NewService creates a sync service. reauth may be nil, in which case
// authentication failures surface directly.
func NewService(backups *backup.Service, remote Remote, reauth Reauthenticator) *Service {
	return &Service{backups: backups, remote: remote, reauth: reauth}
}

// Push exports all books and uploads the result to the remote.
func (s *Service) Push(ctx context.Context) error {
	var buf bytes.Buffer
	if _, err := s.backups.ExportAll(ctx, &buf); err != nil {
		return err
	}
	data := buf.Bytes()

	err := s.withReauth(ctx, func(remote Remote) error {
		return remote.Upload(ctx, data)
	})
	if err != nil {
		return err
	}

	slog.Info("sync push complete", "bytes", len(data))
	return nil
}

// Pull downloads the remote backup and restores it locally.
func (s *Service) Pull(ctx context.Context) error {
	var data []byte
	err := s.withReauth(ctx, func(remote Remote) error {
		var dlErr error
		data, dlErr = remote.Download(ctx)
		return dlErr
	})
	if err != nil {
		return err
	}

	if err := s.backups.Restore(ctx, bytes.NewReader(data)); err != nil {
		return err
	}

	slog.Info("sync pull complete", "bytes", len(data))
	return nil
}

// withReauth runs op, retrying exactly once after re-authentication when the
// remote reports expired or missing credentials.
func (s *Service) withReauth(ctx context.Context, op func(Remote) error) error {
	err := op(s.remote)
	if err == nil || s.reauth == nil || !errors.Is(err, common.ErrNotAuthenticated) {
		return err
	}

	slog.Warn("drive credentials rejected, re-authenticating", "error", err)
	remote, authErr := s.reauth(ctx)
	if authErr != nil {
		return authErr
	}
	s.remote = remote
	return op(s.remote)
}
