package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/akeren/go-waitlist/config"
	"github.com/akeren/go-waitlist/domain/waitlist"
	"github.com/akeren/go-waitlist/internal/models"
	"github.com/spf13/cobra"
)

var initStoreCmd = &cobra.Command{
	Use:   "init-store",
	Short: "Create the empty waitlist if it does not exist",
	Args:  cobra.NoArgs,
	RunE:  runInitStore,
}

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of waitlist signups",
	Args:  cobra.NoArgs,
	RunE:  runCount,
}

var importCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Replace the waitlist with the entries in a JSON file",
	Long: `Replace the stored waitlist with a JSON array of entries:

  [{"email":"a@x.com","name":"A","timestamp":"2024-05-01T10:00:00.000Z","position":1}]

This is the format the key-value store keeps, so a dump of an existing
"waitlist" key can be moved into any backend. The command refuses to
overwrite a non-empty waitlist unless --force is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(initStoreCmd, countCmd, importCmd)

	importCmd.Flags().Bool("force", false, "overwrite a non-empty waitlist")
}

// openRepository connects the configured store; the returned func releases it.
func openRepository(ctx context.Context) (waitlist.WaitlistRepository, *config.StoreConfig, func(), error) {
	logger := cliLogger()
	storeCfg := config.NewStoreConfig()

	db, client, err := storeCfg.Connect(ctx, logger, false)
	if err != nil {
		return nil, nil, nil, err
	}
	release := func() {
		config.CloseDatabase(db, logger)
		_ = config.CloseRedis(client, logger)
	}

	repo, err := waitlist.NewRepositoryForDriver(waitlist.StoreSettings{
		Driver:         storeCfg.Driver,
		Key:            storeCfg.Key,
		AppendAttempts: storeCfg.AppendAttempts,
	}, db, client)
	if err != nil {
		release()
		return nil, nil, nil, err
	}

	return repo, storeCfg, release, nil
}

func runInitStore(cmd *cobra.Command, args []string) error {
	repo, storeCfg, release, err := openRepository(cmd.Context())
	if err != nil {
		return err
	}
	defer release()

	ctx, cancel := context.WithTimeout(cmd.Context(), storeCfg.Timeout)
	defer cancel()

	if err := repo.Initialize(ctx); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Waitlist store ready (driver=%s, key=%s)\n", storeCfg.Driver, storeCfg.Key)
	return nil
}

func runCount(cmd *cobra.Command, args []string) error {
	repo, storeCfg, release, err := openRepository(cmd.Context())
	if err != nil {
		return err
	}
	defer release()

	ctx, cancel := context.WithTimeout(cmd.Context(), storeCfg.Timeout)
	defer cancel()

	count, err := repo.Count(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), count)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")

	entries, err := readEntries(args[0])
	if err != nil {
		return err
	}

	repo, storeCfg, release, err := openRepository(cmd.Context())
	if err != nil {
		return err
	}
	defer release()

	ctx, cancel := context.WithTimeout(cmd.Context(), storeCfg.Timeout)
	defer cancel()

	existing, err := repo.Count(ctx)
	if err != nil {
		return err
	}
	if existing > 0 && !force {
		return fmt.Errorf("waitlist already holds %d entries; use --force to overwrite", existing)
	}

	if err := repo.Save(ctx, entries); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d entries\n", len(entries))
	return nil
}

// readEntries rejects files whose positions are not exactly 1..n or that
// repeat an email under the duplicate-detection rules.
func readEntries(path string) ([]*models.WaitlistEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var entries []*models.WaitlistEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	positions := make(map[int64]bool, len(entries))
	emails := make(map[string]bool, len(entries))
	for i, entry := range entries {
		if entry == nil {
			return nil, fmt.Errorf("%s: entry %d is null", path, i)
		}
		if entry.Position < 1 || entry.Position > int64(len(entries)) || positions[entry.Position] {
			return nil, fmt.Errorf("%s: position %d for %s is out of sequence", path, entry.Position, entry.Email)
		}
		if emails[entry.EmailKey] {
			return nil, fmt.Errorf("%s: %s is listed more than once", path, entry.Email)
		}
		positions[entry.Position] = true
		emails[entry.EmailKey] = true
	}

	return entries, nil
}
