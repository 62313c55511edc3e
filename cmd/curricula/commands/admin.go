package commands

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/spf13/cobra"

	"github.com/curricula/backend/internal/auth"
	"github.com/curricula/backend/internal/models"
	"github.com/curricula/backend/pkg/utils"
)

// MinPasswordLength is the shortest admin password create-admin accepts.
const MinPasswordLength = 8

// createAdminCmd represents the create-admin command
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create the back-office admin account",
	Long: `Create an admin account from ADMIN_EMAIL, ADMIN_PASSWORD and ADMIN_NAME.

The command fails if an account with the same email already exists.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCreateAdmin(cmd)
	},
}

func init() {
	rootCmd.AddCommand(createAdminCmd)
}

type adminAccount struct {
	Email    string
	Password string
	Name     string
}

func newAdminAccount(email, password, name string) (adminAccount, error) {
	a := adminAccount{
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Password: password,
		Name:     strings.TrimSpace(name),
	}
	if a.Email == "" || a.Password == "" {
		return adminAccount{}, errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set")
	}
	if _, err := mail.ParseAddress(a.Email); err != nil {
		return adminAccount{}, fmt.Errorf("ADMIN_EMAIL %q is not a valid email address", a.Email)
	}
	if len(a.Password) < MinPasswordLength {
		return adminAccount{}, fmt.Errorf("ADMIN_PASSWORD must be at least %d characters", MinPasswordLength)
	}
	if a.Name == "" {
		a.Name = "Admin"
	}
	return a, nil
}

func runCreateAdmin(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	account, err := newAdminAccount(cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.Name)
	if err != nil {
		return err
	}
	hash, err := utils.HashPassword(account.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	logger := newLogger()
	defer logger.Sync()

	pool, err := connect(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	user, err := auth.NewRepository(pool).CreateUser(cmd.Context(), account.Name, account.Email, hash, models.RoleAdmin)
	if err != nil {
		return err
	}
	cmd.Printf("✓ Created admin %s (%s)\n", user.Email, user.ID)
	return nil
}
