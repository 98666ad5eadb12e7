package cmd

import (
	"context"
	"time"

	gconfig "github.com/Laisky/go-config/v2"
	"github.com/Laisky/zap"
	"github.com/spf13/cobra"

	"github.com/officeours/drive-airtable-bridge/internal/global"
	"github.com/officeours/drive-airtable-bridge/internal/web"
	"github.com/officeours/drive-airtable-bridge/library/log"
)

var apiCMD = &cobra.Command{
	Use:   "api",
	Short: "api",
	Long:  `webhook API server bridging google drive and airtable`,
	PreRun: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if err := initialize(ctx, cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		go runSweeper(ctx)
		web.RunServer(gconfig.Shared.GetString("listen"), global.BridgeCtrl)
	},
}

// runSweeper removes expired staged files on a fixed cadence, mirroring the
// cleanup the server also performs once at startup.
func runSweeper(ctx context.Context) {
	interval := time.Duration(gconfig.Shared.GetInt("settings.staging.sweep_interval_sec")) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}

	global.Staging.Sweep(ctx, time.Now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			global.Staging.Sweep(ctx, now)
		}
	}
}

func init() {
	rootCMD.AddCommand(apiCMD)
}
