package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"figsprite/internal/pipeline"
	"figsprite/internal/writer"
	"figsprite/pkg/auth"
	"figsprite/pkg/config"
	"figsprite/pkg/figma"
	"figsprite/pkg/logger"
)

var (
	genToken      string
	genOutput     string
	genFormats    []string
	genConcurrent int
	genPadding    int
	genRetina     bool
	genStrict     bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <figma-url|file-key>",
	Short: "Export icons from a Figma file and build sprite sheets",
	Long: `Export every icon component from a Figma file and assemble the
requested sprite sheets in the output directory.

The argument is either a full Figma URL (file or design link) or a bare
file key. A personal access token is resolved from --token, the stored
credentials ('figsprite auth set') or the FIGSPRITE_TOKEN / FIGMA_TOKEN
environment variables, in that order.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&genToken, "token", "", "Figma personal access token")
	generateCmd.Flags().StringVarP(&genOutput, "output", "o", "", "output directory (default ./sprite)")
	generateCmd.Flags().StringSliceVarP(&genFormats, "formats", "f", nil, "sheet formats to build (png,svg)")
	generateCmd.Flags().IntVar(&genConcurrent, "concurrent", 0, "max concurrent asset downloads")
	generateCmd.Flags().IntVar(&genPadding, "padding", -1, "padding in pixels around each packed icon")
	generateCmd.Flags().BoolVar(&genRetina, "retina", true, "also build a 2x raster sheet")
	generateCmd.Flags().BoolVar(&genStrict, "strict-overlaps", false, "fail instead of warn on overlapping packed boxes")

	rootCmd.AddCommand(generateCmd)
}

// generateFlags builds the flag overrides for config.Load. The string
// and int flags carry sentinel defaults the merge ignores, but the
// booleans have no such sentinel, so their cobra defaults would clobber
// file and env settings; they are only merged when actually set.
func generateFlags(cmd *cobra.Command) map[string]interface{} {
	flags := map[string]interface{}{
		"token":      genToken,
		"output":     genOutput,
		"formats":    genFormats,
		"concurrent": genConcurrent,
		"padding":    genPadding,
		"log-level":  logLevel,
	}
	if cmd.Flags().Changed("retina") {
		flags["retina"] = genRetina
	}
	if cmd.Flags().Changed("strict-overlaps") {
		flags["strict"] = genStrict
	}
	return flags
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, generateFlags(cmd))
	if err != nil {
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return err
	}
	log := logger.GetLogger()

	if cfg.Figma.AccessToken == "" {
		cfg.Figma.AccessToken = storedToken()
	}
	if cfg.Figma.AccessToken == "" {
		return fmt.Errorf("no Figma access token: use --token, 'figsprite auth set' or FIGSPRITE_TOKEN")
	}

	fileKey, err := figma.ExtractFileKey(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := figma.NewClient(cfg.Figma.AccessToken, cfg.Figma.RequestTimeout, log)
	p := pipeline.New(client, cfg, log)

	result, err := p.Run(ctx, fileKey)
	if err != nil {
		return err
	}

	out, err := writer.NewManager(cfg.Output.Directory, log)
	if err != nil {
		return err
	}
	written, err := out.WriteResult(result)
	if err != nil {
		return err
	}

	printSummary(result, written)
	return nil
}

// storedToken resolves a token from the credential store chain. Errors
// are swallowed; a missing token is reported by the caller.
func storedToken() string {
	manager, err := auth.NewManager()
	if err != nil {
		return ""
	}
	token, err := manager.Retrieve("")
	if err != nil {
		return ""
	}
	return token.Value
}

func printSummary(result *pipeline.Result, written []string) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	bold.Printf("\n%s\n", result.FileName)

	if result.Raster != nil {
		green.Printf("  ✓ raster sheet %dx%d (hash %s)\n", result.Raster.Width, result.Raster.Height, result.Raster.Hash)
	}
	if result.Retina != nil {
		green.Printf("  ✓ retina sheet %dx%d (hash %s)\n", result.Retina.Width, result.Retina.Height, result.Retina.Hash)
	}
	if result.Vector != nil {
		green.Printf("  ✓ vector sheet, %d symbols (hash %s)\n", len(result.Vector.Icons), result.Vector.Hash)
	}

	if len(result.Failures) > 0 {
		yellow.Printf("  ! %d asset(s) failed to export:\n", len(result.Failures))
		for _, f := range result.Failures {
			yellow.Printf("    - %s [%s]: %s\n", f.ExportID, f.Format, f.Reason)
		}
	}

	fmt.Println()
	for _, path := range written {
		fmt.Printf("  wrote %s\n", path)
	}
}
