package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/havenproj/haven/internal/config"
	"github.com/havenproj/haven/internal/domain"
	"github.com/havenproj/haven/internal/store"
)

// openStore resolves the database path the same way serve does and opens it.
func openStore() (*store.DB, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return nil, err
	}
	if err := config.EnsurePaths(paths); err != nil {
		return nil, err
	}
	dbPath := cfg.Database.Path
	if dbPath != ":memory:" && !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(paths.Data, dbPath)
	}
	return store.Open(dbPath, log)
}

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage registered users",
	}

	cmd.AddCommand(newUserCreateCmd())
	cmd.AddCommand(newUserShowCmd())
	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var (
		name           string
		therapistEmail string
		consentLevel   string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}

			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			user, err := db.CreateUser(context.Background(), domain.User{
				Name:           name,
				TherapistEmail: therapistEmail,
				ConsentLevel:   consentLevel,
			})
			if err != nil {
				return err
			}
			fmt.Printf("created user %d (%s)\n", user.ID, user.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&therapistEmail, "therapist-email", "", "therapist contact for escalations")
	cmd.Flags().StringVar(&consentLevel, "consent", "", "consent level (basic, full)")

	return cmd
}

func newUserShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a user and their current risk profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("user id must be a number")
			}

			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := context.Background()
			user, err := db.GetUser(ctx, id)
			if err != nil {
				return err
			}
			profile := db.LoadProfile(ctx, id)

			fmt.Printf("User:      %s (id %d)\n", user.Name, user.ID)
			fmt.Printf("Consent:   %s\n", user.ConsentLevel)
			if user.TherapistEmail != "" {
				fmt.Printf("Therapist: %s\n", user.TherapistEmail)
			}
			fmt.Printf("Risk:      %s\n", profile.RiskLevel)
			for _, score := range profile.LatestScores {
				fmt.Printf("  %-8s %d (%s)\n", score.Kind, score.Total, score.When.Format("2006-01-02"))
			}
			return nil
		},
	}
}
