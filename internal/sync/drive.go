package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/lekha-app/lekha/internal/common"
)

// BackupFileName is the fixed name of the backup file on Drive. Sync always
// targets this single file.
const BackupFileName = "lekha_backup.json"

// opTimeout bounds each individual Drive API call.
const opTimeout = 5 * time.Second

// DriveClient talks to the Google Drive API.
type DriveClient struct {
	svc *drive.Service
}

// NewDriveClient builds a Drive client from a saved token. It returns
// common.ErrNotAuthenticated when no usable token exists.
func NewDriveClient(ctx context.Context, config OAuth2Config) (*DriveClient, error) {
	token, err := LoadToken(config.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrNotAuthenticated, err)
	}

	source := config.oauthConfig().TokenSource(ctx, token)
	svc, err := drive.NewService(ctx, option.WithTokenSource(source))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &DriveClient{svc: svc}, nil
}

// Upload writes data to the backup file, creating it on first sync and
// updating it in place afterwards.
func (c *DriveClient) Upload(ctx context.Context, data []byte) error {
	fileID, err := c.findBackupFile(ctx)
	if err != nil && !errors.Is(err, common.ErrBackupNotFound) {
		return err
	}

	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if fileID == "" {
		meta := &drive.File{Name: BackupFileName, MimeType: "application/json"}
		_, err = c.svc.Files.Create(meta).
			Media(bytes.NewReader(data)).
			Context(opCtx).
			Do()
	} else {
		_, err = c.svc.Files.Update(fileID, &drive.File{}).
			Media(bytes.NewReader(data)).
			Context(opCtx).
			Do()
	}
	if err != nil {
		return classifyDriveError(err, "upload backup")
	}

	slog.Info("uploaded backup to drive", "file", BackupFileName, "bytes", len(data), "created", fileID == "")
	return nil
}

// Download returns the contents of the backup file, or
// common.ErrBackupNotFound when no backup has been uploaded yet.
func (c *DriveClient) Download(ctx context.Context) ([]byte, error) {
	fileID, err := c.findBackupFile(ctx)
	if err != nil {
		return nil, err
	}

	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	resp, err := c.svc.Files.Get(fileID).Context(opCtx).Download()
	if err != nil {
		return nil, classifyDriveError(err, "download backup")
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup contents: %w", err)
	}

	slog.Info("downloaded backup from drive", "file", BackupFileName, "bytes", len(data))
	return data, nil
}

// findBackupFile locates the backup file by its fixed name.
func (c *DriveClient) findBackupFile(ctx context.Context) (string, error) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := fmt.Sprintf("name = '%s' and trashed = false", BackupFileName)
	list, err := c.svc.Files.List().
		Q(query).
		Spaces("drive").
		Fields("files(id, name, modifiedTime)").
		PageSize(1).
		Context(opCtx).
		Do()
	if err != nil {
		return "", classifyDriveError(err, "list backup files")
	}
	if len(list.Files) == 0 {
		return "", common.ErrBackupNotFound
	}
	return list.Files[0].Id, nil
}

// classifyDriveError maps authorization failures to the sentinel the sync
// layer retries on.
func classifyDriveError(err error, op string) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == 401 || apiErr.Code == 403) {
		return fmt.Errorf("%w: %s: %v", common.ErrNotAuthenticated, op, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
