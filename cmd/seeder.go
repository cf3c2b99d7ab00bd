package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/frahmantamala/access-control/internal/ability"
	"github.com/frahmantamala/access-control/internal/catalog"
	"github.com/frahmantamala/access-control/internal/user"
	"github.com/spf13/cobra"
)

var seedAdmin struct {
	UserName string
	FullName string
	Email    string
	Password string
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed roles, permissions, companies and the super admin",
	Long:  `Seed the access catalogue and a super admin account. Safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := initializeDependencies()
		if err != nil {
			return err
		}
		defer deps.DB.Close()

		svc, err := newServices(deps)
		if err != nil {
			return err
		}

		if err := seed(cmd.Context(), svc); err != nil {
			return err
		}
		deps.EventBus.Wait()
		return nil
	},
}

func seed(ctx context.Context, svc *Services) error {
	result, err := svc.Catalog.Seed(ctx, catalog.DefaultPlan())
	if err != nil {
		return fmt.Errorf("seed catalogue: %w", err)
	}

	exists, err := svc.UserRepo.ExistsUserName(ctx, seedAdmin.UserName, 0)
	if err != nil {
		return fmt.Errorf("look up super admin: %w", err)
	}
	if exists {
		fmt.Println("super admin already exists:", seedAdmin.UserName)
		return nil
	}

	password := seedAdmin.Password
	if password == "" {
		password = os.Getenv("SEED_ADMIN_PASSWORD")
	}
	if password == "" {
		return errors.New("super admin password missing: pass --admin-password or set SEED_ADMIN_PASSWORD")
	}

	roleID, ok := result.Roles[ability.RoleSuperAdmin]
	if !ok {
		return fmt.Errorf("role %s was not seeded", ability.RoleSuperAdmin)
	}

	active := true
	created, err := svc.Users.Create(ctx, user.CreateUserDTO{
		UserName:   seedAdmin.UserName,
		FullName:   seedAdmin.FullName,
		Email:      seedAdmin.Email,
		Password:   password,
		IsActive:   &active,
		RoleIDs:    []int64{roleID},
		CompanyIDs: result.CompanyIDs(),
	})
	if err != nil {
		return fmt.Errorf("create super admin: %w", err)
	}

	fmt.Println("Seeded super admin:", created.UserName, created.Email)
	return nil
}

func init() {
	seedCmd.Flags().StringVar(&seedAdmin.UserName, "admin-username", "superadmin", "super admin user name")
	seedCmd.Flags().StringVar(&seedAdmin.FullName, "admin-name", "Super Admin", "super admin full name")
	seedCmd.Flags().StringVar(&seedAdmin.Email, "admin-email", "superadmin@example.com", "super admin email")
	seedCmd.Flags().StringVar(&seedAdmin.Password, "admin-password", "", "super admin password (defaults to SEED_ADMIN_PASSWORD)")
}
