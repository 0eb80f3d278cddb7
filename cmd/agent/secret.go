package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"jobagent-engine/internal/secrets"
)

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage mailbox/SMTP passwords in the OS keychain",
}

var secretSetCmd = &cobra.Command{
	Use:   "set <account>",
	Short: "Store a password for a keyring account (read from stdin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprint(os.Stderr, "password: ")
		r := bufio.NewReader(os.Stdin)
		pw, err := r.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		if err := secrets.Set(args[0], strings.TrimSpace(pw)); err != nil {
			return err
		}
		fmt.Printf("stored secret for %s\n", args[0])
		return nil
	},
}

var secretDeleteCmd = &cobra.Command{
	Use:   "delete <account>",
	Short: "Remove a stored password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := secrets.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted secret for %s\n", args[0])
		return nil
	},
}

func init() {
	secretCmd.AddCommand(secretSetCmd, secretDeleteCmd)
}
