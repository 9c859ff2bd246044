package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/nfrund/authshell/internal/config"
	"github.com/nfrund/authshell/internal/database"
	"github.com/nfrund/authshell/internal/domain"
	"github.com/nfrund/authshell/internal/loginform"
	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage backend accounts",
}

var (
	userEmail    string
	userPassword string
	userName     string
)

// newRegistrar is swapped in tests.
var newRegistrar = func(cfg config.Provider) domain.UserRegistrar {
	return database.NewUserStore(cfg)
}

// loadConfig is swapped in tests. Only the SurrealDB settings are needed.
var loadConfig = func() (config.Provider, error) {
	_ = godotenv.Load()
	cfg, err := config.LoadDB(os.Getenv)
	if err != nil {
		return nil, fmt.Errorf("invalid SurrealDB configuration: %w", err)
	}
	return cfg, nil
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an account that can log in through the form",
	Long: `Creates an account through SurrealDB record access (SURREAL_ACCESS).
The credentials must pass the same rules as the login form.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ok, errs := loginform.Validate(loginform.FormData{Email: userEmail, Password: userPassword})
		if !ok {
			for _, f := range []loginform.Field{loginform.FieldEmail, loginform.FieldPassword} {
				if msg, found := errs[f]; found {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", f, msg)
				}
			}
			return errors.New("invalid credentials")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		user := &domain.User{Email: userEmail}
		if userName != "" {
			user.Name = &userName
		}

		if err := newRegistrar(cfg).SignUp(cmd.Context(), user, userPassword); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created user %s\n", userEmail)
		return nil
	},
}

func init() {
	userAddCmd.Flags().StringVar(&userEmail, "email", "", "account email (required)")
	userAddCmd.Flags().StringVar(&userPassword, "password", "", "account password (required)")
	userAddCmd.Flags().StringVar(&userName, "name", "", "display name")
	_ = userAddCmd.MarkFlagRequired("email")
	_ = userAddCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userAddCmd)
	rootCmd.AddCommand(userCmd)
}
