package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/curricula/backend/internal/seed"
)

var (
	// Seed flags
	seedFile string
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace the catalog with demo data",
	Long: `Delete every creator, category, tag and resource and insert the demo catalog.
Pending submissions and admin accounts are not touched.

Examples:
  curricula seed                       # Load the built-in demo catalog
  curricula seed --file catalog.yaml   # Load a custom catalog`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSeed(cmd)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML file to load instead of the built-in data")
}

func loadSeedData() (*seed.Data, error) {
	if seedFile == "" {
		return seed.Default()
	}
	raw, err := os.ReadFile(seedFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", seedFile, err)
	}
	return seed.Load(raw)
}

func runSeed(cmd *cobra.Command) error {
	data, err := loadSeedData()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger()
	defer logger.Sync()

	pool, err := connect(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	counts, err := seed.Run(cmd.Context(), pool, data)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	cmd.Printf("✓ Inserted %d creators\n", counts.Creators)
	cmd.Printf("✓ Inserted %d categories\n", counts.Categories)
	cmd.Printf("✓ Inserted %d tags\n", counts.Tags)
	cmd.Printf("✓ Inserted %d resources\n", counts.Resources)
	cmd.Printf("✓ Linked %d resource tags\n", counts.ResourceTags)
	return nil
}
