package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/snapvec/snapvec/application/service"
	"github.com/snapvec/snapvec/domain/embedding"
	"github.com/snapvec/snapvec/domain/gallery"
	"github.com/snapvec/snapvec/internal/log"
)

func embedCmd() *cobra.Command {
	var (
		envFile string
		kind    string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Generate embeddings for catalog items",
		Long: `Generate embeddings for every catalog item that does not have one yet.

Entities that already have an embedding under the active model are skipped
unless --force is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmbed(cmd, envFile, kind, force)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&kind, "kind", "", "Only embed entities of this kind: image or album")
	cmd.Flags().BoolVar(&force, "force", false, "Regenerate embeddings that already exist")

	return cmd
}

func runEmbed(cmd *cobra.Command, envFile, kind string, force bool) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	log.Configure(&cfg)
	logger := slog.Default()

	client, err := buildClient(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("close client", "error", err)
		}
	}()

	ctx := cmd.Context()

	var findOpts []gallery.Option
	if kind != "" {
		k := embedding.Kind(kind)
		if k != embedding.KindImage && k != embedding.KindAlbum {
			return fmt.Errorf("unknown kind %q: want image or album", kind)
		}
		findOpts = append(findOpts, gallery.WithKind(k))
	}

	items, err := client.Catalog.Find(ctx, findOpts...)
	if err != nil {
		return fmt.Errorf("list catalog items: %w", err)
	}
	if len(items) == 0 {
		fmt.Println("no catalog items found")
		return nil
	}

	refs := make([]embedding.EntityRef, len(items))
	for i, item := range items {
		refs[i] = item.Ref()
	}

	report, err := client.Batch.Generate(ctx, refs, force)
	if err != nil {
		return fmt.Errorf("generate embeddings: %w", err)
	}

	fmt.Printf("embedded %d entities: %d generated, %d skipped, %d failed\n",
		len(report.Outcomes), report.Generated, report.Skipped, report.Failed)
	for _, outcome := range report.Outcomes {
		if outcome.Status == service.BatchFailed {
			fmt.Printf("  failed %s: %s\n", outcome.Ref, outcome.Error)
		}
	}

	if report.Failed > 0 {
		return fmt.Errorf("%d entities failed", report.Failed)
	}
	return nil
}
