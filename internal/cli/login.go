package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gcsguardian/guardian/internal/api"
	"github.com/gcsguardian/guardian/internal/storage"
)

var loginFormat string

var loginCmd = &cobra.Command{
	Use:   "login <token>",
	Short: "Store an access token in the persistent cache",
	Long: `Login stores the backend access token in the persistent cache so that
later results and serve runs can use it without GUARDIAN_TOKEN.

Use "-" to read the token from stdin.

Example:
  guardian login eyJhbGciOi...
  gcloud auth print-identity-token | guardian login -`,
	Args: cobra.ExactArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored access token",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func init() {
	loginCmd.Flags().StringVar(&loginFormat, "format", "text",
		"output format: text or json")
}

type loginResult struct {
	Status   string `json:"status"`
	Token    string `json:"token,omitempty"`
	Location string `json:"location,omitempty"`
}

func runLogin(cmd *cobra.Command, args []string) error {
	token := args[0]
	if token == "-" {
		data, err := readAllLimited(os.Stdin, api.MaxTokenLength+1)
		if err != nil {
			return fmt.Errorf("read token: %w", err)
		}
		token = string(data)
	}
	token = strings.TrimSpace(token)

	if err := api.ValidateToken(token); err != nil {
		return &ValidationError{Message: fmt.Sprintf("invalid token: %v", err)}
	}

	persistent, err := openPersistent()
	if err != nil {
		return err
	}
	defer func() { _ = persistent.Close() }()

	if err := persistent.Set(storage.KeyAccessToken, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}

	if loginFormat == "json" {
		return writeLoginJSON(loginResult{Status: "stored", Token: maskToken(token), Location: persistent.Location()})
	}
	fmt.Printf("Access token %s stored in %s\n", maskToken(token), persistent.Location())
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	persistent, err := openPersistent()
	if err != nil {
		return err
	}
	defer func() { _ = persistent.Close() }()

	if err := persistent.Delete(storage.KeyAccessToken); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	fmt.Println("Access token removed.")
	if configuredToken() != "" {
		fmt.Println("Note: a token is still set through config or GUARDIAN_TOKEN.")
	}
	return nil
}

func writeLoginJSON(result loginResult) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
