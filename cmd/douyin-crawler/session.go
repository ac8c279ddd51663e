package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fengxsong/douyin-crawler/pkg/auth"
	"github.com/fengxsong/douyin-crawler/pkg/douyin"
)

// sessionCmd represents the session command
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored Douyin sessions",
	Long: `Manage stored Douyin sessions.

Sessions are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read-only fallback)

Never share your cookies or config files!`,
}

// sessionImportCmd represents the session import command
var sessionImportCmd = &cobra.Command{
	Use:   "import [name]",
	Short: "Store a browser cookie securely",
	Long: `Store a Douyin session cookie copied from a logged-in browser.

You will be prompted for the full Cookie header value; it is hidden as
you type. To log in through a browser window instead, use
'douyin-crawler login'.`,
	Example: `  # Interactive import
  douyin-crawler session import

  # Import under a specific account name
  douyin-crawler session import myaccount`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSessionImport,
}

// sessionListCmd represents the session list command
var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored accounts",
	Long:  `List all stored accounts with sensitive values masked.`,
	RunE:  runSessionList,
}

// sessionRemoveCmd represents the session remove command
var sessionRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a stored session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionRemove,
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionImportCmd)
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionRemoveCmd)
}

func runSessionImport(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}

	name := "default"
	if len(args) > 0 {
		name = args[0]
	}

	reader := bufio.NewReader(os.Stdin)

	auth.ShowCookieExtractionGuide()

	if existing, _ := manager.Retrieve(name); existing != nil {
		fmt.Printf("⚠️  Account %q already exists. Update the session? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	var cookie string
	for {
		fmt.Print("🔐 Cookie header value (hidden): ")
		cookie, err = readPassword()
		if err != nil {
			return fmt.Errorf("failed to read cookie: %w", err)
		}
		if !douyin.ParseSession(cookie).IsLoggedIn() {
			fmt.Println("\n❌ That cookie does not contain LOGIN_STATUS=1.")
			fmt.Println("   Make sure you copied the full Cookie header from a logged-in tab.")
			fmt.Print("\nTry again? (Y/n): ")
			retry, _ := reader.ReadString('\n')
			if strings.ToLower(strings.TrimSpace(retry)) == "n" {
				return fmt.Errorf("aborted")
			}
			continue
		}
		break
	}

	fmt.Print("\n🔑 msToken value (optional, hidden, Enter to skip): ")
	msToken, err := readPassword()
	if err != nil {
		return fmt.Errorf("failed to read msToken: %w", err)
	}

	if err := manager.Store(&auth.Account{
		Name:    name,
		Cookie:  cookie,
		MsToken: msToken,
	}); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	fmt.Printf("\n✅ Session stored as %q\n", name)
	return nil
}

func runSessionList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		fmt.Println("No stored accounts. Run 'douyin-crawler login' or 'douyin-crawler session import'.")
		return nil
	}

	for _, account := range accounts {
		masked := auth.SanitizeAccount(account)
		fmt.Printf("%-20s cookie=%s  modified=%s\n",
			masked.Name, masked.Cookie, masked.LastModified.Format("2006-01-02 15:04"))
	}
	return nil
}

func runSessionRemove(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	if err := manager.Delete(args[0]); err != nil {
		return err
	}
	fmt.Printf("Removed session %q\n", args[0])
	return nil
}

// readPassword reads a line without echoing it
func readPassword() (string, error) {
	data, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
