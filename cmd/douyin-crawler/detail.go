package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fengxsong/douyin-crawler/pkg/crawler"
	"github.com/fengxsong/douyin-crawler/pkg/logger"
)

// detailCmd represents the detail command
var detailCmd = &cobra.Command{
	Use:   "detail <aweme_id>...",
	Short: "Fetch video metadata",
	Long: `Fetch the metadata of one or more videos and print each as a JSON
object, one per line. Videos that fail to resolve are logged and skipped.`,
	Example: `  douyin-crawler detail 7300000000000000001
  douyin-crawler detail 7300000000000000001 7300000000000000002 --concurrency 4`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDetail,
}

var detailConcurrency int

func init() {
	rootCmd.AddCommand(detailCmd)
	detailCmd.Flags().IntVar(&detailConcurrency, "concurrency", 0, "concurrent fetches (default: number of CPUs)")
}

func runDetail(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := initLogger(cfg); err != nil {
		return err
	}
	log := logger.GetLogger()
	resolveSession(cfg)

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	concurrency := cfg.Crawl.Concurrency
	if detailConcurrency > 0 {
		concurrency = detailConcurrency
	}

	orch := crawler.NewOrchestrator(client, concurrency, log)
	details := orch.FetchDetails(ctx, args)

	for _, id := range args {
		detail, ok := details[id]
		if !ok {
			continue
		}
		fmt.Println(detail.Raw.Raw)
	}
	log.WithFields(map[string]interface{}{
		"requested": len(args),
		"resolved":  len(details),
	}).Info("detail fetch finished")
	return nil
}
