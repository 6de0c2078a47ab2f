package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"AgentAction/internal/app"
	"AgentAction/internal/repo"
	"AgentAction/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print a bcrypt hash for AUTH_PASSWORD_HASH",
	Long: `Prints a bcrypt hash of the password. Use it as AUTH_PASSWORD_HASH so the
plain-text password never has to live in the environment.

If no argument is given the password is read from stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := passwordArg(cmd, args)
		if err != nil {
			return err
		}
		hash, err := service.HashPassword(password)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

var (
	addUserName     string
	addUserPassword string
)

var addUserCmd = &cobra.Command{
	Use:   "add-user",
	Short: "Create or update a basic-auth account in Postgres",
	Long: `Stores an account in the users table, used when AUTH_SOURCE=postgres.
An existing account gets its password replaced. Requires PG_DSN.

Example:
  agentaction add-user --username heroku --password 's3cret'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if strings.TrimSpace(addUserName) == "" || addUserPassword == "" {
			return errors.New("--username and --password are required")
		}
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		db, err := app.Connect(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		u, err := service.NewUserService(repo.NewPGUserRepo(db)).SetPassword(cmd.Context(), addUserName, addUserPassword)
		if err != nil {
			return err
		}
		logger.Info("user saved", zap.Int64("id", u.ID), zap.String("username", u.Username))
		return nil
	},
}

func init() {
	addUserCmd.Flags().StringVar(&addUserName, "username", "", "account name")
	addUserCmd.Flags().StringVar(&addUserPassword, "password", "", "account password")
}

func passwordArg(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("empty password")
	}
	return password, nil
}
