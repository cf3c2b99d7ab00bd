package cmd

import (
	"fmt"
	"strconv"

	"github.com/frahmantamala/access-control/internal/core/events"
	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Session management commands",
}

var revokeSessionsCmd = &cobra.Command{
	Use:   "revoke [user-id]",
	Short: "Revoke every session of a user",
	Long:  `Delete every access token of the user. A sessions-revoked event is published for the audit log.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || userID <= 0 {
			return fmt.Errorf("user-id must be a positive integer, got %q", args[0])
		}

		deps, err := initializeDependencies()
		if err != nil {
			return err
		}
		defer deps.DB.Close()

		svc, err := newServices(deps)
		if err != nil {
			return err
		}

		n, err := svc.Auth.RevokeAllUserTokens(cmd.Context(), userID, events.RevokeReasonForced)
		if err != nil {
			return err
		}
		deps.EventBus.Wait()

		fmt.Printf("revoked %d sessions of user %d\n", n, userID)
		return nil
	},
}

func init() {
	sessionsCmd.AddCommand(revokeSessionsCmd)
	rootCmd.AddCommand(sessionsCmd)
}
