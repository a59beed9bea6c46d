package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information, set at build time.
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "figsprite",
	Short: "Generate raster and vector sprite sheets from Figma icon files",
	Long: `figsprite exports every icon component from a Figma file and packs
them into content-addressed sprite sheets.

Outputs:
  - sprite.png / sprite@2x.png  bin-packed raster sheets
  - sprite.svg                  <symbol> based vector sheet
  - sprite-preview.svg          renderable preview using <use>
  - manifest.json               icon positions, hashes and failures

Authentication uses a Figma personal access token, stored in the system
keychain via 'figsprite auth set' or provided through FIGSPRITE_TOKEN.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("figsprite %s\n  commit: %s\n  built:  %s\n", version, gitCommit, buildDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.figsprite.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
}
