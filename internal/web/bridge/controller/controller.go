// Package controller exposes the bridge operations as gin handlers. Handlers
// stay thin: bind and validate input, call the orchestrator, map the error
// taxonomy onto HTTP statuses.
package controller

import (
	"net/http"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/officeours/drive-airtable-bridge/internal/web/bridge/dao"
	"github.com/officeours/drive-airtable-bridge/internal/web/bridge/dto"
	"github.com/officeours/drive-airtable-bridge/internal/web/bridge/model"
	"github.com/officeours/drive-airtable-bridge/internal/web/bridge/service"
)

// Features is what /health reports as enabled.
type Features struct {
	Drive            bool `json:"drive_integration"`
	Airtable         bool `json:"airtable_integration"`
	BearerAuth       bool `json:"bearer_token_auth"`
	WebhookSignature bool `json:"webhook_signature"`
	Mirror           bool `json:"attachment_mirror"`
}

// Config holds the handler-level knobs.
type Config struct {
	// record field that receives extracted text after a successful prepare
	TextField string
	Features  Features
}

// Bridge is the handler set for all bridge endpoints.
type Bridge struct {
	svc     *service.Bridge
	records service.RecordClient
	cfg     Config
}

// New wires the handlers.
func New(svc *service.Bridge, records service.RecordClient, cfg Config) *Bridge {
	return &Bridge{svc: svc, records: records, cfg: cfg}
}

// Health reports liveness and enabled features; the only unauthenticated
// endpoint.
func (b *Bridge) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "drive-airtable-bridge",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"features":  b.cfg.Features,
	})
}

// DownloadAndAnalyze stages a Drive file for AI analysis and, when text was
// extracted, persists it on the record.
func (b *Bridge) DownloadAndAnalyze(ctx *gin.Context) {
	var req dto.PrepareRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		b.badRequest(ctx, "record_id is required")
		return
	}
	if req.FileID == "" && req.DriveURL == "" {
		b.badRequest(ctx, "file_id or drive_url is required")
		return
	}

	result, err := b.svc.DownloadAndPrepare(ctx, req.FileID, req.DriveURL, req.RecordID)
	if err != nil {
		b.respondError(ctx, err)
		return
	}

	if result.Skipped {
		ctx.JSON(http.StatusOK, dto.PrepareResponse{
			Success: true,
			Skipped: true,
			Message: result.Message,
		})
		return
	}

	// the orchestrator never writes the record, persisting the result is
	// this handler's call
	if result.ExtractedText != "" {
		if err := b.records.UpdateField(ctx,
			req.RecordID, b.cfg.TextField, result.ExtractedText); err != nil {
			b.respondError(ctx, errors.Wrap(err, "store extracted text"))
			return
		}
	}

	ctx.JSON(http.StatusOK, dto.PrepareResponse{
		Success:        true,
		Message:        result.Message,
		FileID:         result.FileID,
		FileName:       result.FileName,
		MimeType:       result.MimeType,
		FileSize:       result.SizeBytes,
		ExtractedText:  result.ExtractedText,
		AttachmentPath: result.AttachmentPath,
		AttachmentURL:  result.AttachmentURL,
	})
}

// RenameFile applies an explicit new name to a Drive file.
func (b *Bridge) RenameFile(ctx *gin.Context) {
	var req dto.RenameRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		b.badRequest(ctx, "file_id and new_name are required")
		return
	}

	applied, err := b.svc.Rename(ctx, req.FileID, req.NewName)
	if err != nil {
		b.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.RenameResponse{
		Success: true,
		Message: "renamed to: " + applied,
		NewName: applied,
	})
}

// AutoRenameFile renames a Drive file to the suggestion stored on its record.
// A skipped rename is a 200 with success=false, per the automation contract.
func (b *Bridge) AutoRenameFile(ctx *gin.Context) {
	var req dto.AutoRenameRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		b.badRequest(ctx, "record_id is required")
		return
	}

	result, err := b.svc.AutoRename(ctx, req.RecordID, req.FileID)
	if err != nil {
		b.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.AutoRenameResponse{
		Success:      !result.Skipped,
		Message:      result.Message,
		FileID:       result.FileID,
		OriginalName: result.OriginalName,
		NewName:      result.NewName,
	})
}

// AutoDeleteFile trashes a Drive file, distinguishing already-gone from
// permission problems.
func (b *Bridge) AutoDeleteFile(ctx *gin.Context) {
	var req dto.DeleteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		b.badRequest(ctx, "file_id is required")
		return
	}

	outcome, err := b.svc.AutoDelete(ctx, req.FileID)
	if err != nil {
		b.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.DeleteResponse{
		Success:        true,
		AlreadyDeleted: outcome.AlreadyDeleted,
		Message:        outcome.Message,
	})
}

// UploadToDrive pushes attachment URLs into Drive. Mixed outcomes use 207 so
// the automation can tell partial success from a clean run.
func (b *Bridge) UploadToDrive(ctx *gin.Context) {
	var req dto.UploadRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		b.badRequest(ctx, "attachment_url or attachment_urls is required")
		return
	}

	urls := req.URLs()
	if len(urls) == 0 {
		b.badRequest(ctx, "attachment_url or attachment_urls is required")
		return
	}

	report, err := b.svc.UploadToStorage(ctx, urls, req.FolderID, req.Filenames)
	if err != nil {
		b.respondError(ctx, err)
		return
	}

	status := http.StatusOK
	switch {
	case report.AllFailed():
		status = http.StatusBadGateway
	case !report.AllOK():
		status = http.StatusMultiStatus
	}

	ctx.JSON(status, gin.H{
		"success":   !report.AllFailed(),
		"partial":   !report.AllOK() && !report.AllFailed(),
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
		"items":     report.Items,
	})
}

// ServeAttachment streams a staged file's raw bytes. Names that sanitize
// differently from what was given are traversal attempts and rejected.
func (b *Bridge) ServeAttachment(ctx *gin.Context) {
	name := ctx.Param("name")

	safe, err := dao.SanitizeName(name)
	if err != nil || safe != name {
		gmw.GetLogger(ctx).Warn("reject attachment name", zap.String("name", name))
		b.badRequest(ctx, "invalid attachment name")
		return
	}

	file, err := b.svc.Staging().Get(name)
	if err != nil {
		b.respondError(ctx, errors.Wrap(model.ErrNotFound, "attachment"))
		return
	}

	if file.MimeType != "" {
		ctx.Header("Content-Type", file.MimeType)
	}
	// the stored name is already sanitized; the original may carry quotes
	// or other header-hostile characters
	ctx.FileAttachment(file.LocalPath, file.ID)
}

// TempFiles lists staged files, metadata only.
func (b *Bridge) TempFiles(ctx *gin.Context) {
	files := b.svc.Staging().List()

	resp := dto.TempFilesResponse{
		Success: true,
		TempDir: b.svc.Staging().Root(),
		Files:   make([]dto.TempFileInfo, 0, len(files)),
	}
	for _, f := range files {
		resp.Files = append(resp.Files, dto.TempFileInfo{
			Name:      f.ID,
			Size:      f.SizeBytes,
			MimeType:  f.MimeType,
			CreatedAt: f.CreatedAt.UTC().Format(time.RFC3339),
			ExpiresAt: f.ExpiresAt().UTC().Format(time.RFC3339),
		})
		resp.TotalSize += f.SizeBytes
	}
	resp.FileCount = len(resp.Files)

	ctx.JSON(http.StatusOK, resp)
}

// Cleanup clears the whole staging directory.
func (b *Bridge) Cleanup(ctx *gin.Context) {
	removed := b.svc.Staging().RemoveAll(ctx)
	ctx.JSON(http.StatusOK, dto.CleanupResponse{Success: true, Removed: removed})
}

func (b *Bridge) badRequest(ctx *gin.Context, msg string) {
	ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Code:  "invalid_request",
		Error: msg,
	})
}

// respondError maps the error taxonomy onto statuses and machine-readable
// codes. Nothing leaves as an opaque 500.
func (b *Bridge) respondError(ctx *gin.Context, err error) {
	logger := gmw.GetLogger(ctx)

	status := http.StatusBadGateway
	code := "transfer_failed"
	switch {
	case errors.Is(err, model.ErrInvalidReference),
		errors.Is(err, model.ErrInvalidName):
		status, code = http.StatusBadRequest, "invalid_request"
	case errors.Is(err, model.ErrRecordNotFound):
		status, code = http.StatusNotFound, "record_not_found"
	case errors.Is(err, model.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, model.ErrPermission):
		status, code = http.StatusForbidden, "permission_denied"
	case errors.Is(err, model.ErrStorageFull):
		status, code = http.StatusInsufficientStorage, "storage_full"
	case errors.Is(err, model.ErrDownload):
		status, code = http.StatusBadGateway, "download_failed"
	}

	if status >= http.StatusInternalServerError {
		logger.Error("bridge operation failed", zap.Error(err))
	} else {
		logger.Warn("bridge operation rejected", zap.Error(err))
	}

	ctx.JSON(status, dto.ErrorResponse{Code: code, Error: err.Error()})
}
