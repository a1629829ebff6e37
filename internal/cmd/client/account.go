package client

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

// NewAccountCommand constructs the `account` command group and subcommands.
func NewAccountCommand(baseURL BaseURLFunc) *cobra.Command {
	accountCmd := &cobra.Command{Use: "account", Short: "Account operations"}
	accountCmd.AddCommand(
		newAccountRegisterCommand(baseURL),
		newAccountLoginCommand(baseURL),
		newAccountPingCommand(baseURL),
	)
	return accountCmd
}

func newAccountRegisterCommand(baseURL BaseURLFunc) *cobra.Command {
	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new client",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("name")
			publicKey, _ := cmd.Flags().GetString("public-key")
			keyFile, _ := cmd.Flags().GetString("key-file")
			if publicKey == "" && keyFile != "" {
				key, err := loadPrivateKey(keyFile)
				if err != nil {
					return err
				}
				publicKey, err = publicKeyString(key)
				if err != nil {
					return err
				}
			}
			resp, body, err := request(cmd.Context(), baseURL(), http.MethodPost, "/v1/register",
				identity{}, nil, map[string]string{"name": name, "publicKey": publicKey})
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusCreated {
				return fmt.Errorf("register: %s: %s", resp.Status, body)
			}
			printJSON(cmd.OutOrStdout(), body)
			return nil
		},
	}
	registerCmd.Flags().String("name", "", "Display name")
	registerCmd.Flags().String("public-key", "", "Public key (ssh-ed25519 line or base64)")
	registerCmd.Flags().String("key-file", "", "Derive the public key from this private key file")
	_ = registerCmd.MarkFlagRequired("name")
	return registerCmd
}

func newAccountLoginCommand(baseURL BaseURLFunc) *cobra.Command {
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and turn liveness on",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ident, err := loadIdentity(cmd)
			if err != nil {
				return err
			}
			if ident.clientID == "" {
				return fmt.Errorf("missing --user")
			}
			resp, body, err := request(cmd.Context(), baseURL(), http.MethodPost, "/v1/login",
				ident, []byte(ident.clientID), nil)
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("login: %s: %s", resp.Status, body)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged in")
			return nil
		},
	}
	addIdentityFlags(loginCmd)
	return loginCmd
}

func newAccountPingCommand(baseURL BaseURLFunc) *cobra.Command {
	pingCmd := &cobra.Command{
		Use:   "ping",
		Short: "Broadcast a ping to all live clients",
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, body, err := request(cmd.Context(), baseURL(), http.MethodGet, "/v1/ping",
				identity{}, nil, nil)
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("ping: %s: %s", resp.Status, body)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
	return pingCmd
}
