// Package service orchestrates multi-step transfers between the storage
// service, the record database and the local staging store.
package service

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/zap"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"

	"github.com/officeours/drive-airtable-bridge/internal/web/bridge/dao"
	"github.com/officeours/drive-airtable-bridge/internal/web/bridge/model"
	"github.com/officeours/drive-airtable-bridge/library/drive"
)

// maxFetchBytes bounds a single arbitrary-URL download.
const maxFetchBytes = 100 << 20

// StorageClient is the storage-service surface the orchestrator needs.
type StorageClient interface {
	Fetch(ctx context.Context, fileID string) (*drive.File, error)
	Rename(ctx context.Context, fileID, newName string) (string, error)
	Trash(ctx context.Context, fileID string) error
	Upload(ctx context.Context, name, mimeType string, content []byte, folderID string) (*drive.UploadedFile, error)
}

// RecordClient is the record-database surface the orchestrator needs.
type RecordClient interface {
	GetRecord(ctx context.Context, recordID string) (map[string]any, error)
	UpdateField(ctx context.Context, recordID, field string, value any) error
}

// TextExtractor yields plain text from file bytes; failures are non-fatal.
type TextExtractor interface {
	Extract(ctx context.Context, name, mimeType string, content []byte) (string, error)
}

// Config holds the record field names and serving locations the orchestrator
// works with.
type Config struct {
	// record fields
	TextField          string
	FileIDField        string
	SuggestedNameField string
	OriginalNameField  string
	RenameStatusField  string

	// absolute base for attachment URLs handed to the record database
	PublicURL string
	// Drive folder used when an upload names none
	DefaultFolderID string
}

// Bridge sequences calls against the external services. It keeps no state
// between requests beyond the staging store.
type Bridge struct {
	storage   StorageClient
	records   RecordClient
	staging   *dao.Staging
	extractor TextExtractor
	httpCli   *http.Client
	cfg       Config
}

// New wires the orchestrator.
func New(storage StorageClient, records RecordClient,
	staging *dao.Staging, extractor TextExtractor, cfg Config) *Bridge {
	return &Bridge{
		storage:   storage,
		records:   records,
		staging:   staging,
		extractor: extractor,
		httpCli:   &http.Client{Timeout: 60 * time.Second},
		cfg:       cfg,
	}
}

// Staging exposes the staging store for handlers that serve or sweep files.
func (b *Bridge) Staging() *dao.Staging { return b.staging }

// PrepareResult is the outcome of DownloadAndPrepare.
type PrepareResult struct {
	Skipped bool
	Message string

	FileID        string
	FileName      string
	MimeType      string
	SizeBytes     int64
	ExtractedText string

	StagedID       string
	AttachmentPath string
	AttachmentURL  string
}

// DownloadAndPrepare fetches a Drive file, stages it and extracts its text.
// The record is only read, never written; callers decide whether to persist
// the result, which keeps the operation safe to retry.
func (b *Bridge) DownloadAndPrepare(ctx context.Context,
	fileID, driveURL, recordID string) (*PrepareResult, error) {
	logger := gmw.GetLogger(ctx)

	// idempotency: a record that already carries extracted text is done
	fields, err := b.records.GetRecord(ctx, recordID)
	if err != nil {
		return nil, errors.Wrapf(err, "check record `%s`", recordID)
	}
	if text := fieldString(fields, b.cfg.TextField); text != "" {
		logger.Info("record already processed, skip download",
			zap.String("record_id", recordID))
		return &PrepareResult{
			Skipped: true,
			Message: "skipped, record already processed",
		}, nil
	}

	if fileID == "" && driveURL != "" {
		fileID = drive.ExtractFileID(driveURL)
	}
	if fileID == "" {
		return nil, errors.Wrap(model.ErrInvalidReference,
			"no file_id and no recognizable drive_url")
	}

	file, err := b.storage.Fetch(ctx, fileID)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch file `%s`", fileID)
	}

	staged, err := b.staging.Stage(ctx, file.Content, file.Name, file.MimeType)
	if err != nil {
		return nil, errors.Wrap(err, "stage file")
	}

	result := &PrepareResult{
		FileID:         fileID,
		FileName:       file.Name,
		MimeType:       file.MimeType,
		SizeBytes:      staged.SizeBytes,
		StagedID:       staged.ID,
		AttachmentPath: "/attachments/" + staged.ID,
		AttachmentURL:  strings.TrimSuffix(b.cfg.PublicURL, "/") + "/attachments/" + staged.ID,
		Message:        "file staged, ready for analysis",
	}

	// extraction failure degrades to an empty text, AI analysis can still
	// proceed from the staged file itself
	text, err := b.extractor.Extract(ctx, file.Name, file.MimeType, file.Content)
	if err != nil {
		logger.Warn("text extraction failed",
			zap.String("file", file.Name), zap.Error(err))
		result.Message = "file staged, text extraction unavailable"
	}
	result.ExtractedText = text

	return result, nil
}

// Rename validates and applies newName. Exactly one storage call, nothing
// checked against prior state: re-renaming to the same name is harmless.
func (b *Bridge) Rename(ctx context.Context, fileID, newName string) (string, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return "", errors.Wrap(model.ErrInvalidName, "new name is empty")
	}

	applied, err := b.storage.Rename(ctx, fileID, newName)
	if err != nil {
		return "", errors.Wrapf(err, "rename file `%s`", fileID)
	}

	return applied, nil
}

// AutoRenameResult is the outcome of AutoRename.
type AutoRenameResult struct {
	Skipped bool
	Message string

	FileID       string
	OriginalName string
	NewName      string
}

// AutoRename renames the Drive file referenced by a record to the record's
// suggested name, then writes a status field back best-effort. A non-empty
// fileID overrides the record's file-id field.
func (b *Bridge) AutoRename(ctx context.Context, recordID, fileID string) (*AutoRenameResult, error) {
	logger := gmw.GetLogger(ctx)

	fields, err := b.records.GetRecord(ctx, recordID)
	if err != nil {
		return nil, errors.Wrapf(err, "get record `%s`", recordID)
	}

	if fileID == "" {
		fileID = fieldString(fields, b.cfg.FileIDField)
	}
	suggested := strings.TrimSpace(fieldString(fields, b.cfg.SuggestedNameField))
	original := fieldString(fields, b.cfg.OriginalNameField)

	if fileID == "" {
		return nil, errors.Wrapf(model.ErrInvalidReference,
			"record `%s` has no %s", recordID, b.cfg.FileIDField)
	}
	if suggested == "" {
		return &AutoRenameResult{
			Skipped: true,
			FileID:  fileID,
			Message: "no suggested name available",
		}, nil
	}
	if suggested == original {
		return &AutoRenameResult{
			Skipped:      true,
			FileID:       fileID,
			OriginalName: original,
			Message:      "suggested name same as original",
		}, nil
	}

	applied, err := b.storage.Rename(ctx, fileID, suggested)
	if err != nil {
		b.writeRenameStatus(ctx, recordID,
			fmt.Sprintf("❌ Rename failed: %s", err.Error()))
		return nil, errors.Wrapf(err, "auto-rename file `%s`", fileID)
	}

	b.writeRenameStatus(ctx, recordID, fmt.Sprintf("✅ Renamed to: %s", applied))

	logger.Info("auto-renamed file",
		zap.String("file_id", fileID),
		zap.String("from", original),
		zap.String("to", applied))
	return &AutoRenameResult{
		FileID:       fileID,
		OriginalName: original,
		NewName:      applied,
		Message:      "auto-renamed to: " + applied,
	}, nil
}

// writeRenameStatus stores the rename outcome on the record; a failed status
// write is logged only.
func (b *Bridge) writeRenameStatus(ctx context.Context, recordID, status string) {
	if b.cfg.RenameStatusField == "" {
		return
	}

	if err := b.records.UpdateField(ctx, recordID, b.cfg.RenameStatusField, status); err != nil {
		gmw.GetLogger(ctx).Warn("update rename status",
			zap.String("record_id", recordID), zap.Error(err))
	}
}

// DeleteOutcome distinguishes the three delete results.
type DeleteOutcome struct {
	AlreadyDeleted bool
	Message        string
}

// AutoDelete trashes a Drive file. A file that is already gone is reported
// as such, not as an error; a permission failure stays distinct so callers
// can ask for elevated access.
func (b *Bridge) AutoDelete(ctx context.Context, fileID string) (*DeleteOutcome, error) {
	if err := b.storage.Trash(ctx, fileID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return &DeleteOutcome{
				AlreadyDeleted: true,
				Message:        "file already deleted",
			}, nil
		}

		return nil, errors.Wrapf(err, "delete file `%s`", fileID)
	}

	return &DeleteOutcome{Message: "file moved to trash"}, nil
}

// UploadItem is one per-URL result of UploadToStorage.
type UploadItem struct {
	URL     string `json:"url"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	FileID  string `json:"file_id,omitempty"`
	Name    string `json:"name,omitempty"`
	WebLink string `json:"web_link,omitempty"`
}

// UploadReport aggregates the per-item outcomes.
type UploadReport struct {
	Items     []UploadItem `json:"items"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
}

// AllOK reports uniform success.
func (r *UploadReport) AllOK() bool { return r.Failed == 0 && r.Succeeded > 0 }

// AllFailed reports uniform failure.
func (r *UploadReport) AllFailed() bool { return r.Succeeded == 0 }

// UploadToStorage downloads each URL and uploads it to Drive under folderID
// (or the configured default). Items are independent: one bad URL never
// aborts the others.
func (b *Bridge) UploadToStorage(ctx context.Context,
	urls []string, folderID string, filenames []string) (*UploadReport, error) {
	if len(urls) == 0 {
		return nil, errors.Wrap(model.ErrInvalidReference, "no attachment urls")
	}

	folder := folderID
	if folder == "" {
		folder = b.cfg.DefaultFolderID
	}

	report := &UploadReport{Items: make([]UploadItem, len(urls))}

	var pool errgroup.Group
	pool.SetLimit(4)
	for i, rawURL := range urls {
		var explicitName string
		if i < len(filenames) {
			explicitName = strings.TrimSpace(filenames[i])
		}

		pool.Go(func() error {
			report.Items[i] = b.uploadOne(ctx, rawURL, explicitName, folder)
			return nil
		})
	}
	_ = pool.Wait()

	for _, item := range report.Items {
		if item.Success {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}

	return report, nil
}

// uploadOne fetches one URL and pushes the bytes into Drive.
func (b *Bridge) uploadOne(ctx context.Context, rawURL, explicitName, folder string) UploadItem {
	item := UploadItem{URL: rawURL}

	content, respName, respMime, err := b.fetchURL(ctx, rawURL)
	if err != nil {
		item.Error = errors.Wrap(model.ErrDownload, err.Error()).Error()
		return item
	}

	name, mimeType := resolveUploadName(rawURL, explicitName, respName, respMime, content)

	uploaded, err := b.storage.Upload(ctx, name, mimeType, content, folder)
	if err != nil {
		item.Error = err.Error()
		return item
	}

	item.Success = true
	item.FileID = uploaded.ID
	item.Name = uploaded.Name
	item.WebLink = uploaded.WebLink
	return item
}

// fetchURL downloads bytes from an attachment URL with a bounded read.
func (b *Bridge) fetchURL(ctx context.Context, rawURL string) (content []byte, name, mimeType string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", "", errors.Wrap(err, "new request")
	}

	resp, err := b.httpCli.Do(req)
	if err != nil {
		return nil, "", "", errors.Wrap(err, "fetch url")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", "", errors.Errorf("unexpected status %d", resp.StatusCode)
	}

	content, err = io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, "", "", errors.Wrap(err, "read body")
	}

	if _, params, err := mime.ParseMediaType(
		resp.Header.Get("Content-Disposition")); err == nil {
		name = params["filename"]
	}

	mimeType = resp.Header.Get("Content-Type")
	if idx := strings.IndexByte(mimeType, ';'); idx >= 0 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}

	return content, name, mimeType, nil
}

// resolveUploadName picks the filename and mime type for an uploaded item:
// explicit name first, then the response header, then the URL path, with the
// extension preserved or sniffed from the bytes.
func resolveUploadName(rawURL, explicitName, respName, respMime string, content []byte) (string, string) {
	name := explicitName
	if name == "" {
		name = respName
	}
	if name == "" {
		if u, err := url.Parse(rawURL); err == nil {
			name = path.Base(u.Path)
		}
	}
	if name == "" || name == "." || name == "/" {
		name = "attachment"
	}

	mimeType := respMime
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = mimetype.Detect(content).String()
	}

	if path.Ext(name) == "" {
		if ext := mimetype.Detect(content).Extension(); ext != "" {
			name += ext
		}
	}

	return name, mimeType
}

// fieldString reads a record field as a trimmed string; non-string values
// count as absent.
func fieldString(fields map[string]any, key string) string {
	if key == "" {
		return ""
	}

	if v, ok := fields[key].(string); ok {
		return strings.TrimSpace(v)
	}

	return ""
}
