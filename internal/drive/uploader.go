package drive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"pocketledger/internal/database"
	"pocketledger/internal/database/repository"
)

// DefaultFolderName is the destination folder created when none is stored or
// the stored one is gone.
const DefaultFolderName = "PocketLedger Backups"

// Summary reports the outcome of one upload run.
type Summary struct {
	Attempted    int      // items pending at the start of the run
	Uploaded     int
	Failed       int
	Skipped      int      // not attempted: no credentials, or aborted after an auth failure
	Errors       []string // "<filename>: <message>" per failed item
	RequiresAuth bool
	// UpdatedFolderID is set only when the destination folder changed this run.
	UpdatedFolderID *string
}

// Uploader drains pending export queue items into the remote store. Per-item
// status transitions are strictly sequential; at most one run is in flight at
// a time.
type Uploader struct {
	Queue    *repository.ExportQueueRepo
	Settings *repository.SettingsRepo
	Store    ObjectStore
	Tokens   TokenSource
	Log      *zap.SugaredLogger

	// ReadFile overrides artifact reading in tests; nil means os.ReadFile.
	ReadFile func(path string) ([]byte, error)
	// FolderName overrides DefaultFolderName when non-empty.
	FolderName string

	running atomic.Bool
}

// UploadPending uploads every pending queue item, oldest first. It returns
// (nil, nil) when a run is already in flight: a concurrent request is
// dropped, not queued. Per-item failures land in the summary; only setup
// failures (credential step erroring, folder resolution erroring, storage
// faults) return an error.
func (u *Uploader) UploadPending(ctx context.Context, interactive bool) (*Summary, error) {
	if !u.running.CompareAndSwap(false, true) {
		return nil, nil
	}
	defer u.running.Store(false)

	pending, err := u.Queue.Pending(ctx)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return &Summary{}, nil
	}
	summary := &Summary{Attempted: len(pending)}

	token, err := u.Tokens.Token(ctx, interactive)
	if err != nil {
		return nil, fmt.Errorf("acquire token: %w", err)
	}
	if token == "" {
		// No credentials: nothing is mutated, every item counts as skipped.
		summary.Skipped = len(pending)
		summary.RequiresAuth = true
		return summary, nil
	}

	folderID, err := u.resolveFolder(ctx, token, summary)
	if err != nil {
		return nil, err
	}

	for i, item := range pending {
		if _, err := u.Queue.Update(ctx, item.ID, repository.ExportItemPatch{
			Status:    repository.SetTo(repository.StatusUploading),
			LastError: repository.SetNull[string](),
		}); err != nil {
			return nil, err
		}

		fileID, upErr := u.uploadItem(ctx, token, folderID, item)
		if upErr == nil {
			if _, err := u.Queue.Update(ctx, item.ID, repository.ExportItemPatch{
				Status:      repository.SetTo(repository.StatusCompleted),
				DriveFileID: repository.SetTo(fileID),
				UploadedAt:  repository.SetTo(database.Now()),
				LastError:   repository.SetNull[string](),
			}); err != nil {
				return nil, err
			}
			summary.Uploaded++
			u.logf("uploaded %s as %s", item.Filename, fileID)
			continue
		}

		if _, err := u.Queue.Update(ctx, item.ID, repository.ExportItemPatch{
			Status:    repository.SetTo(repository.StatusFailed),
			LastError: repository.SetTo(upErr.Error()),
		}); err != nil {
			return nil, err
		}
		summary.Failed++
		summary.Errors = append(summary.Errors, item.Filename+": "+upErr.Error())
		u.logf("upload failed for %s: %v", item.Filename, upErr)

		var se *StatusError
		if errors.As(upErr, &se) && se.AuthFailure() {
			// Retrying the rest without fresh credentials would only pile up
			// identical failures; leave them pending.
			summary.RequiresAuth = true
			summary.Skipped = len(pending) - i - 1
			break
		}
	}
	return summary, nil
}

// resolveFolder verifies the stored destination folder and creates a fresh
// one when none is stored, the stored one is gone, or it is trashed. A new
// folder id is persisted as a setting and surfaced on the summary.
func (u *Uploader) resolveFolder(ctx context.Context, token string, summary *Summary) (string, error) {
	stored, _, err := u.Settings.Get(ctx, repository.SettingDriveFolderID)
	if err != nil {
		return "", err
	}
	if stored != nil && *stored != "" {
		folder, err := u.Store.GetFolder(ctx, token, *stored)
		if err == nil && !folder.Trashed {
			return folder.ID, nil
		}
		var se *StatusError
		if errors.As(err, &se) && se.AuthFailure() {
			return "", fmt.Errorf("verify folder: %w", err)
		}
		u.logf("stored folder %s unusable, creating a new one", *stored)
	}

	name := u.FolderName
	if name == "" {
		name = DefaultFolderName
	}
	id, err := u.Store.CreateFolder(ctx, token, name)
	if err != nil {
		return "", fmt.Errorf("create folder: %w", err)
	}
	if err := u.Settings.Set(ctx, repository.SettingDriveFolderID, &id); err != nil {
		return "", err
	}
	summary.UpdatedFolderID = &id
	return id, nil
}

// uploadItem reads the artifact bytes, preferring the platform content handle
// and falling back to the plain path, then performs the upload.
func (u *Uploader) uploadItem(ctx context.Context, token, folderID string, item repository.ExportItem) (string, error) {
	readFile := u.ReadFile
	if readFile == nil {
		readFile = os.ReadFile
	}

	var content []byte
	var err error
	if item.FileURI != nil && *item.FileURI != "" {
		content, err = readFile(strings.TrimPrefix(*item.FileURI, "file://"))
	}
	if content == nil {
		content, err = readFile(item.FilePath)
	}
	if err != nil {
		return "", fmt.Errorf("read artifact: %w", err)
	}
	return u.Store.Upload(ctx, token, folderID, item.Filename, content)
}

func (u *Uploader) logf(format string, args ...any) {
	if u.Log != nil {
		u.Log.Infof(format, args...)
	}
}
