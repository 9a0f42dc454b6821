package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/intern-autoapply/internal/config"
	"github.com/jonathan/intern-autoapply/internal/server"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an operator token for the apply endpoints",
	Long:  `Sign a bearer token with JWT_SECRET, for scripts running on the same host as the server.`,
	Args:  cobra.NoArgs,
	RunE:  runToken,
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Hash an operator password for OPERATOR_PASSWORD_HASH",
	Long:  `Read a password from stdin and print its bcrypt hash (honoring BCRYPT_COST and PASSWORD_PEPPER).`,
	Args:  cobra.NoArgs,
	RunE:  runHashPassword,
}

var setPasswordCmd = &cobra.Command{
	Use:   "set-password",
	Short: "Store the listing site password in the OS keychain",
	Long: `Read the listing site password from stdin and store it in the OS keychain under the
account email (--email or INTERNSHALA_EMAIL). apply then needs no INTERNSHALA_PASSWORD.`,
	Args: cobra.NoArgs,
	RunE: runSetPassword,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(hashPasswordCmd)
	rootCmd.AddCommand(setPasswordCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return err
	}

	sessionID := uuid.New()
	token, expiresAt, err := server.NewJWTService(jwtConfig).GenerateToken(sessionID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, token)
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Session %s, expires %s\n", sessionID, expiresAt.Local().Format(time.RFC3339))
	return nil
}

func runHashPassword(cmd *cobra.Command, _ []string) error {
	passwords, err := config.NewPasswordConfig()
	if err != nil {
		return err
	}

	pw, err := readSecret(cmd.InOrStdin(), cmd.ErrOrStderr(), "Operator password: ")
	if err != nil {
		return err
	}
	hash, err := passwords.HashOperatorPassword(pw)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}

func runSetPassword(cmd *cobra.Command, _ []string) error {
	email := strings.TrimSpace(flagEmail)
	if email == "" {
		email = strings.TrimSpace(os.Getenv("INTERNSHALA_EMAIL"))
	}
	if email == "" {
		return fmt.Errorf("--email or INTERNSHALA_EMAIL is required")
	}

	pw, err := readSecret(cmd.InOrStdin(), cmd.ErrOrStderr(), fmt.Sprintf("Password for %s: ", email))
	if err != nil {
		return err
	}
	if err := config.StorePassword(email, pw); err != nil {
		return fmt.Errorf("failed to store password: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Stored password for %s in the %q keychain entry\n", email, config.KeyringService)
	return nil
}

// readSecret reads one line from in, prompting on prompt when in is a terminal.
func readSecret(in io.Reader, prompt io.Writer, label string) (string, error) {
	if f, ok := in.(*os.File); ok {
		if info, err := f.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
			_, _ = fmt.Fprint(prompt, label)
		}
	}

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return "", errors.New("no password given on stdin")
	}
	pw := strings.TrimRight(scanner.Text(), "\r")
	if strings.TrimSpace(pw) == "" {
		return "", errors.New("password is empty")
	}
	return pw, nil
}
