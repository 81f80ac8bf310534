// catalogctl maintains the reference catalog (districts, blocks and the
// survey choice lists) in the sqlite database used by the server.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"krushi/config"
	"krushi/database"
	"krushi/pkg/catalog/repositoryImp"
	"krushi/pkg/catalog/service"
	"krushi/pkg/catalog/serviceImp"
	"krushi/pkg/logger"
)

var (
	dbPath string
	force  bool
)

var rootCmd = &cobra.Command{
	Use:           "catalogctl",
	Short:         "Manage the survey reference catalog",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the built-in Odisha districts, blocks and lists",
	Long: `Load the built-in lists. Without --force nothing happens when the
catalog already has districts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}
		sum, err := svc.SeedDefaults(force)
		if err != nil {
			return err
		}
		if sum.Skipped {
			fmt.Fprintln(cmd.OutOrStdout(), "catalog already seeded (use --force to replace)")
			return nil
		}
		printSummary(cmd.OutOrStdout(), sum)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <xlsx|csv|html> <file>",
	Short: "Import blocks (and items from workbooks) from a file",
	Long: `Import districts and blocks from a file. Districts named in the file
get their block lists replaced; other districts are left alone.

  xlsx  workbook with a "Blocks" sheet (District, Block) and an optional
        "Items" sheet (Kind, Name, Label)
  csv   District,Block export
  html  page with one or more District/Block tables`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}
		var load func(io.Reader) (service.Summary, error)
		switch strings.ToLower(args[0]) {
		case "xlsx", "workbook":
			load = svc.ImportWorkbook
		case "csv":
			load = svc.ImportBlocksCSV
		case "html":
			load = svc.ImportBlocksHTML
		default:
			return fmt.Errorf("unknown format %q (want xlsx, csv or html)", args[0])
		}
		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()
		sum, err := load(f)
		if err != nil {
			return fmt.Errorf("import %s: %w", args[1], err)
		}
		printSummary(cmd.OutOrStdout(), sum)
		return nil
	},
}

var districtsCmd = &cobra.Command{
	Use:   "districts [district]",
	Short: "List districts, or the blocks of one district",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}
		var names []string
		if len(args) == 1 {
			names, err = svc.BlocksOf(args[0])
		} else {
			names, err = svc.Districts()
		}
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Fprintln(cmd.OutOrStdout(), n)
		}
		return nil
	},
}

func openService() (service.CatalogService, error) {
	path := dbPath
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		path = cfg.DBPath
	}
	db, err := database.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	return serviceImp.NewCatalogService(repositoryImp.New(db), logger.Nop()), nil
}

func printSummary(w io.Writer, s service.Summary) {
	fmt.Fprintf(w, "districts: %d\nblocks: %d\nitems: %d\n", s.Districts, s.Blocks, s.Items)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "sqlite path (default: DB_PATH or krushi.db)")
	seedCmd.Flags().BoolVar(&force, "force", false, "replace an existing catalog")
	rootCmd.AddCommand(seedCmd, importCmd, districtsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
