package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"figsprite/pkg/auth"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored Figma access tokens",
	Long: `Manage Figma personal access tokens.

Tokens are stored in the system keychain when available, falling back to
an encrypted file under the user config directory. The FIGSPRITE_TOKEN
environment variable always takes precedence over stored tokens.`,
}

var authSetCmd = &cobra.Command{
	Use:   "set [label]",
	Short: "Store a Figma personal access token",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuthSet,
}

var authShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List stored tokens (masked)",
	RunE:  runAuthShow,
}

var authRemoveCmd = &cobra.Command{
	Use:   "remove [label]",
	Short: "Remove a stored token",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuthRemove,
}

func init() {
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authShowCmd)
	authCmd.AddCommand(authRemoveCmd)
	rootCmd.AddCommand(authCmd)
}

func labelArg(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return auth.DefaultLabel
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	value, err := readToken()
	if err != nil {
		return err
	}
	if value == "" {
		return fmt.Errorf("empty token")
	}

	manager, err := auth.NewManager()
	if err != nil {
		return err
	}
	if err := manager.Store(&auth.Token{Label: labelArg(args), Value: value}); err != nil {
		return err
	}

	color.Green("token %q stored", labelArg(args))
	return nil
}

// readToken prompts for the token without echoing when attached to a
// terminal, and falls back to a plain line read when piped.
func readToken() (string, error) {
	fmt.Fprint(os.Stderr, "Figma personal access token: ")

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func runAuthShow(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return err
	}
	tokens, err := manager.List()
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		fmt.Println("no stored tokens")
		return nil
	}

	for _, token := range tokens {
		fmt.Printf("%-16s %s (modified %s)\n",
			token.Label, auth.MaskToken(token.Value), token.LastModified.Format("2006-01-02 15:04"))
	}
	return nil
}

func runAuthRemove(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return err
	}
	label := labelArg(args)
	if err := manager.Delete(label); err != nil {
		return err
	}
	color.Green("token %q removed", label)
	return nil
}
