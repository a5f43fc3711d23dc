package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/finscope/aggregator/internal/platform"
	"github.com/finscope/aggregator/internal/secrets"
)

func newAuthCmd() *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage per-provider credentials in the auth store",
	}

	loginCmd := &cobra.Command{
		Use:   "login <provider>",
		Short: "Store an API key for provider",
		Args:  cobra.ExactArgs(1),
		RunE:  runAuthLogin,
	}
	loginCmd.Flags().String("key", "", "API key value (required)")
	loginCmd.Flags().String("tier", "", "QuiverQuant plan tier tag (public|hobbyist|trader|enterprise); only meaningful for provider=quiver")
	loginCmd.MarkFlagRequired("key")

	logoutCmd := &cobra.Command{
		Use:   "logout <provider>",
		Short: "Remove a provider's stored credential",
		Args:  cobra.ExactArgs(1),
		RunE:  runAuthLogout,
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show which providers have a resolvable credential",
		RunE:  runAuthStatus,
	}

	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)
	return authCmd
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	providerID := args[0]
	key, _ := cmd.Flags().GetString("key")
	tier, _ := cmd.Flags().GetString("tier")
	dataRoot, _ := cmd.Flags().GetString("data-root")

	store := secrets.NewStore(dataRoot, platform.OSFileSystem{})
	info := secrets.AuthInfo{Type: secrets.AuthTypeAPI, Key: key}
	if providerID == "quiver" && tier != "" {
		info.ProviderTier = tier
	}
	if err := store.Set(providerID, info); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	fmt.Printf("Stored credential for %s\n", providerID)
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	providerID := args[0]
	dataRoot, _ := cmd.Flags().GetString("data-root")

	store := secrets.NewStore(dataRoot, platform.OSFileSystem{})
	if err := store.Remove(providerID); err != nil {
		return fmt.Errorf("remove credential: %w", err)
	}
	fmt.Printf("Removed credential for %s\n", providerID)
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	dataRoot, _ := cmd.Flags().GetString("data-root")
	resolver := buildResolver(dataRoot)

	providerIDs := make([]string, 0, len(secrets.ProviderEnvVars)+1)
	for id := range secrets.ProviderEnvVars {
		providerIDs = append(providerIDs, id)
	}
	providerIDs = append(providerIDs, "yahoo")
	sort.Strings(providerIDs)

	for _, id := range providerIDs {
		if id == "yahoo" {
			fmt.Printf("%-14s no credential required\n", id)
			continue
		}
		if id == "quiver" {
			cred, ok := resolver.ResolveQuiverProviderCredential(secrets.ResolveOptions{Trim: true})
			if !ok {
				fmt.Printf("%-14s not configured\n", id)
				continue
			}
			fmt.Printf("%-14s configured (tier=%s, inferred=%v)\n", id, cred.Tier, cred.Inferred)
			continue
		}
		if _, ok := resolver.ResolveProviderApiKey(id, secrets.ResolveOptions{Trim: true}); ok {
			fmt.Printf("%-14s configured\n", id)
		} else {
			fmt.Printf("%-14s not configured\n", id)
		}
	}
	return nil
}
