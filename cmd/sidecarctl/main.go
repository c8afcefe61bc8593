// sidecarctl validates and migrates image sidecar JSON files so they conform
// to the shared sidecar schema. Safe to run repeatedly; it shares the
// migration lock with the serving processes.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/artazzen/gallerybackend/config"
	"github.com/artazzen/gallerybackend/enrichment"
	"github.com/artazzen/gallerybackend/gallery"
	"github.com/artazzen/gallerybackend/lockfile"
	"github.com/artazzen/gallerybackend/recon"
	"github.com/artazzen/gallerybackend/sidecar"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()
	rootCmd := newRootCmd()
	return rootCmd.Execute()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sidecarctl",
		Short:         "Manage image sidecar metadata files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newScanCmd())
	return cmd
}

func buildOrchestrator() (*recon.Orchestrator, *lockfile.Lock, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := lockfile.EnsureLocksDir(cfg.LocksPath); err != nil {
		return nil, nil, err
	}

	settings := config.LoadSettings(cfg.AISettingsPath, cfg.AdvancedSettingsPath)
	schema, err := sidecar.LoadSchema()
	if err != nil {
		return nil, nil, err
	}
	store := sidecar.NewStore(cfg.ImagesPath, schema)
	scanner := gallery.NewScanner(cfg.ImagesPath, store)
	credentials := enrichment.NewCredentialSource(filepath.Join(cfg.DataPath, "openai_api_key"))
	client := enrichment.NewClient(os.Getenv("OPENAI_BASE_URL"), credentials)
	slots := lockfile.NewSlotLimiter(cfg.LocksPath, settings.Advanced().SidecarSlots)

	orch := recon.NewOrchestrator(scanner, store, client, settings, slots, "/static/images/")
	return orch, lockfile.MigrationLock(cfg.LocksPath), nil
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate and migrate sidecars under the images directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, migrationLock, err := buildOrchestrator()
			if err != nil {
				return err
			}
			if !migrationLock.TryAcquire() {
				return fmt.Errorf("another process holds the migration lock; try again later")
			}
			defer migrationLock.Release()

			total, changed := orch.MigrateAll()
			fmt.Fprintf(cmd.OutOrStdout(), "Validated %d images; updated %d sidecars.\n", total, changed)
			return nil
		},
	}
}

func newScanCmd() *cobra.Command {
	var enrich bool
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one reconciliation pass and print the pending-review list",
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, _, err := buildOrchestrator()
			if err != nil {
				return err
			}
			pending := orch.Scan(context.Background(), recon.ScanOptions{
				CreateSidecars: true,
				Enrich:         enrich,
			})
			for _, item := range pending {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", item.Name, item.State)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d images pending review\n", len(pending))
			return nil
		},
	}
	cmd.Flags().BoolVar(&enrich, "enrich", false, "allow enrichment calls during the pass")
	return cmd
}
