// Package global wires shared clients and services at startup.
package global

import (
	"context"
	"path/filepath"
	"time"

	gconfig "github.com/Laisky/go-config/v2"
	"github.com/Laisky/zap"

	"github.com/officeours/drive-airtable-bridge/internal/web/bridge/controller"
	"github.com/officeours/drive-airtable-bridge/internal/web/bridge/dao"
	"github.com/officeours/drive-airtable-bridge/internal/web/bridge/service"
	"github.com/officeours/drive-airtable-bridge/library/airtable"
	"github.com/officeours/drive-airtable-bridge/library/drive"
	"github.com/officeours/drive-airtable-bridge/library/extract"
	"github.com/officeours/drive-airtable-bridge/library/log"
)

var (
	StorageCli *drive.Client
	RecordCli  *airtable.Client
	Staging    *dao.Staging
	BridgeSvc  *service.Bridge
	BridgeCtrl *controller.Bridge
)

// Setup builds every shared component; panics on misconfiguration so the
// process never comes up half-wired.
func Setup(ctx context.Context) {
	setupClients(ctx)
	setupStaging(ctx)
	setupBridge(ctx)
}

func setupClients(ctx context.Context) {
	var err error
	credFile := gconfig.Shared.GetString("settings.drive.credential_file")
	if !filepath.IsAbs(credFile) {
		credFile = filepath.Join(gconfig.Shared.GetString("cfg_dir"), credFile)
	}

	if StorageCli, err = drive.New(ctx,
		credFile,
		gconfig.Shared.GetString("settings.drive.service_account_email"),
	); err != nil {
		log.Logger.Panic("create drive client", zap.Error(err))
	}
	log.Logger.Info("connected google drive")

	RecordCli = airtable.New(
		gconfig.Shared.GetString("settings.airtable.api_key"),
		gconfig.Shared.GetString("settings.airtable.base_id"),
		gconfig.Shared.GetString("settings.airtable.table"),
	)
}

func setupStaging(ctx context.Context) {
	retention := time.Duration(gconfig.Shared.GetInt("settings.staging.retention_sec")) * time.Second
	if retention <= 0 {
		retention = 300 * time.Second
	}

	var opts []dao.StagingOption
	if gconfig.Shared.GetBool("settings.minio.enabled") {
		mirror, err := dao.NewMirror(
			gconfig.Shared.GetString("settings.minio.endpoint"),
			gconfig.Shared.GetString("settings.minio.access_key"),
			gconfig.Shared.GetString("settings.minio.secret_key"),
			gconfig.Shared.GetString("settings.minio.bucket"),
			gconfig.Shared.GetString("settings.minio.prefix"),
			gconfig.Shared.GetBool("settings.minio.secure"),
		)
		if err != nil {
			log.Logger.Panic("create attachment mirror", zap.Error(err))
		}

		opts = append(opts, dao.WithMirror(mirror))
		log.Logger.Info("attachment mirror enabled")
	}

	var err error
	if Staging, err = dao.NewStaging(
		gconfig.Shared.GetString("settings.staging.dir"),
		retention,
		opts...,
	); err != nil {
		log.Logger.Panic("create staging store", zap.Error(err))
	}
}

func setupBridge(ctx context.Context) {
	BridgeSvc = service.New(
		StorageCli,
		RecordCli,
		Staging,
		extract.NewChain(),
		service.Config{
			TextField:          gconfig.Shared.GetString("settings.airtable.text_field"),
			FileIDField:        gconfig.Shared.GetString("settings.airtable.file_id_field"),
			SuggestedNameField: gconfig.Shared.GetString("settings.airtable.suggested_name_field"),
			OriginalNameField:  gconfig.Shared.GetString("settings.airtable.original_name_field"),
			RenameStatusField:  gconfig.Shared.GetString("settings.airtable.rename_status_field"),
			PublicURL:          gconfig.Shared.GetString("settings.server.public_url"),
			DefaultFolderID:    gconfig.Shared.GetString("settings.drive.default_folder_id"),
		},
	)

	BridgeCtrl = controller.New(BridgeSvc, RecordCli, controller.Config{
		TextField: gconfig.Shared.GetString("settings.airtable.text_field"),
		Features: controller.Features{
			Drive:            true,
			Airtable:         gconfig.Shared.GetString("settings.airtable.api_key") != "",
			BearerAuth:       gconfig.Shared.GetString("settings.server.token") != "",
			WebhookSignature: gconfig.Shared.GetString("settings.server.webhook_secret") != "",
			Mirror:           gconfig.Shared.GetBool("settings.minio.enabled"),
		},
	})
}
