package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fengxsong/douyin-crawler/pkg/config"
	"github.com/fengxsong/douyin-crawler/pkg/crawler"
	"github.com/fengxsong/douyin-crawler/pkg/douyin"
	"github.com/fengxsong/douyin-crawler/pkg/logger"
)

var (
	searchKeywords  []string
	commentKeywords []string
	maxComments     int
	maxNotes        int
	intervalFlag    time.Duration
	concurrencyFlag int
	outputPath      string
)

// commentsCmd represents the comments command
var commentsCmd = &cobra.Command{
	Use:   "comments [aweme_id...]",
	Short: "Harvest comments from Douyin videos",
	Long: `Harvest comments from the given videos, or from videos found by keyword
search when --search is used.

Comments are paged through with a courtesy interval between requests and
written as one JSON object per line. An optional keyword filter keeps
only comments whose text contains at least one of the given substrings.`,
	Example: `  # Harvest all comments of two videos
  douyin-crawler comments 7300000000000000001 7300000000000000002

  # Search for videos and harvest up to 200 comments each
  douyin-crawler comments --search "golang" --max-comments 200

  # Keep only comments mentioning a product, write them to a file
  douyin-crawler comments 7300000000000000001 --comment-keyword 手机 -o comments.jsonl`,
	RunE: runComments,
}

func init() {
	rootCmd.AddCommand(commentsCmd)

	commentsCmd.Flags().StringSliceVar(&searchKeywords, "search", nil, "search keywords, harvest the videos they surface")
	commentsCmd.Flags().StringSliceVar(&commentKeywords, "comment-keyword", nil, "keep only comments containing one of these substrings")
	commentsCmd.Flags().IntVar(&maxComments, "max-comments", 0, "max comments per video (0 = unlimited)")
	commentsCmd.Flags().IntVar(&maxNotes, "max-notes", 32, "max videos to collect per search keyword")
	commentsCmd.Flags().DurationVar(&intervalFlag, "interval", 0, "delay between comment pages (default from config)")
	commentsCmd.Flags().IntVar(&concurrencyFlag, "concurrency", 0, "concurrent videos (default: number of CPUs)")
	commentsCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write comments to this file instead of stdout")
}

func runComments(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyCommentFlags(cfg)
	if err := initLogger(cfg); err != nil {
		return err
	}
	log := logger.GetLogger()
	resolveSession(cfg)

	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	if err := client.EnsureLoggedIn(); err != nil {
		log.Warn("session is not logged in, run 'douyin-crawler login' first; results may be partial")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	orch := crawler.NewOrchestrator(client, cfg.Crawl.Concurrency, log)

	ids := args
	if len(searchKeywords) > 0 {
		for _, kw := range searchKeywords {
			ids = append(ids, orch.SearchAwemes(ctx, kw, maxNotes)...)
		}
	}
	if len(ids) == 0 {
		return fmt.Errorf("nothing to do: pass aweme ids or --search keywords")
	}
	log.WithField("count", len(ids)).Info("harvesting comments")

	opts := crawler.HarvestOptions{
		Interval:    cfg.Crawl.Interval,
		MaxComments: cfg.Crawl.MaxComments,
		Keywords:    cfg.Crawl.Keywords,
	}
	results := orch.FetchAllComments(ctx, ids, opts)

	var total int
	for awemeID, comments := range results {
		for _, c := range comments {
			fmt.Fprintln(out, c.Raw.Raw)
			total++
		}
		log.WithFields(map[string]interface{}{
			"aweme_id": awemeID,
			"comments": len(comments),
		}).Info("video done")
	}
	log.WithField("total", total).Info("harvest finished")
	return nil
}

func applyCommentFlags(cfg *config.Config) {
	if intervalFlag > 0 {
		cfg.Crawl.Interval = intervalFlag
	}
	if maxComments > 0 {
		cfg.Crawl.MaxComments = maxComments
	}
	if concurrencyFlag > 0 {
		cfg.Crawl.Concurrency = concurrencyFlag
	}
	if len(commentKeywords) > 0 {
		cfg.Crawl.Keywords = commentKeywords
	}
}

// interface check: the API client satisfies the orchestrator's needs
var _ crawler.PlatformClient = (*douyin.Client)(nil)
