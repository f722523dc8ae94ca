package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/resume-builder/internal/config"
	"github.com/jonathan/resume-builder/internal/server"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for the report history API",
	Long:  `Sign a JWT for a user ID with JWT_SECRET so clients can call the server's history endpoints.`,
	Args:  cobra.NoArgs,
	RunE:  runToken,
}

var tokenUserID string

func init() {
	tokenCmd.Flags().StringVar(&tokenUserID, "user-id", "", "User ID to issue the token for (required)")
	_ = tokenCmd.MarkFlagRequired("user-id")

	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	userID, err := uuid.Parse(tokenUserID)
	if err != nil {
		return fmt.Errorf("invalid --user-id: %w", err)
	}
	if userID == uuid.Nil {
		return fmt.Errorf("invalid --user-id: must not be the nil UUID")
	}

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return err
	}

	token, err := server.NewJWTService(jwtConfig).GenerateToken(userID)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
	return err
}
