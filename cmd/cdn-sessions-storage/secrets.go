package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/youwol/cdn-sessions-storage/auth"
	"github.com/youwol/cdn-sessions-storage/config"
)

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Manage admin credentials of remote clusters",
	Long: `Manage the admin client credentials used by the remote-clients
environment. They are stored in <platform path>/secrets/tricot.json, keyed by
cluster host.`,
}

var secretsAddCmd = &cobra.Command{
	Use:   "add <cluster-host>",
	Short: "Add or replace the credentials of a cluster",
	Long: `Add the credentials of a cluster interactively.

You will be prompted for:
  - Client id
  - Client secret
  - Scope

The credentials are checked against the cluster issuer before saving.`,
	Args: cobra.ExactArgs(1),
	RunE: runSecretsAdd,
}

var secretsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the clusters with credentials",
	Args:  cobra.NoArgs,
	RunE:  runSecretsList,
}

func init() {
	secretsAddCmd.Flags().String("openid-host", "", "host of the cluster issuer (default: remote.openid_host)")

	secretsCmd.AddCommand(secretsAddCmd)
	secretsCmd.AddCommand(secretsListCmd)
	rootCmd.AddCommand(secretsCmd)
}

func secretsPath(settings *config.Settings) string {
	return filepath.Join(settings.Platform.Path, auth.SecretsFile)
}

func runSecretsList(cmd *cobra.Command, _ []string) error {
	settings, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	secrets, err := auth.LoadClusterSecrets(secretsPath(settings))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Println("No cluster credentials configured.")
			fmt.Println("Run 'cdn-sessions-storage secrets add <cluster-host>' to add some.")
			return nil
		}
		return err
	}

	hosts := make([]string, 0, len(secrets))
	for host := range secrets {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)
	for _, host := range hosts {
		c := secrets[host].Redacted()
		fmt.Printf("%s\tclient_id=%s\tclient_secret=%s\tscope=%s\n", host, c.ID, c.Secret, c.Scope)
	}
	return nil
}

func runSecretsAdd(cmd *cobra.Command, args []string) error {
	host := args[0]
	settings, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}
	path := secretsPath(settings)

	if existing, loadErr := auth.LoadClusterSecrets(path); loadErr == nil {
		if _, ok := existing[host]; ok {
			prompt := promptui.Prompt{
				Label:     fmt.Sprintf("Credentials for '%s' already exist. Replace them", host),
				IsConfirm: true,
			}
			if _, promptErr := prompt.Run(); promptErr != nil {
				fmt.Println("Cancelled.")
				return nil //nolint:nilerr // User cancelled, not an error
			}
		}
	}

	required := func(label string) func(string) error {
		return func(input string) error {
			if strings.TrimSpace(input) == "" {
				return fmt.Errorf("%s is required", label)
			}
			return nil
		}
	}

	idPrompt := promptui.Prompt{Label: "Client id", Validate: required("client id")}
	id, err := idPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}

	secretPrompt := promptui.Prompt{Label: "Client secret", Mask: '*', Validate: required("client secret")}
	secret, err := secretPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}

	scopePrompt := promptui.Prompt{Label: "Scope", Default: "email profile"}
	scope, err := scopePrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}

	creds := auth.Credentials{ID: strings.TrimSpace(id), Secret: secret, Scope: strings.TrimSpace(scope)}

	openID, _ := cmd.Flags().GetString("openid-host")
	if openID == "" {
		openID = settings.Remote.OpenIDHost
	}

	fmt.Print("Checking credentials... ")
	if _, tokenErr := auth.ClientCredentials(context.Background(), auth.RealmIssuer(openID), creds).Token(); tokenErr != nil {
		fmt.Println("FAILED")
		fmt.Printf("Warning: could not obtain a token from %s: %v\n", openID, tokenErr)

		continuePrompt := promptui.Prompt{
			Label:     "Save credentials anyway",
			IsConfirm: true,
		}
		if _, promptErr := continuePrompt.Run(); promptErr != nil {
			fmt.Println("Cancelled.")
			return nil //nolint:nilerr // User cancelled, not an error
		}
	} else {
		fmt.Println("OK")
	}

	if err := auth.SaveClusterSecret(path, host, creds); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}

	fmt.Printf("Credentials for '%s' saved to %s.\n", host, path)
	return nil
}

func handlePromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) {
		fmt.Println("\nCancelled.")
		os.Exit(0)
	}
	if errors.Is(err, promptui.ErrAbort) {
		fmt.Println("Cancelled.")
		return nil
	}
	return err
}
