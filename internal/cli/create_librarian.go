// Package cli implements maintenance commands run outside the HTTP server.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/mrvaldes/biblioteca/internal/auth"
	"github.com/mrvaldes/biblioteca/internal/config"
	"github.com/mrvaldes/biblioteca/internal/database"
	"github.com/mrvaldes/biblioteca/internal/database/librarians"
	"github.com/mrvaldes/biblioteca/internal/entities"
)

// CreateLibrarianCommand provisions a librarian identity and, optionally, a
// login credential. Needed to bootstrap the first privileged principal:
// creating librarians over HTTP already requires being one.
type CreateLibrarianCommand struct {
	fs *flag.FlagSet

	username string
	email    string
	fullName string
	password string
}

// NewCreateLibrarianCommand creates the command with its flag set.
func NewCreateLibrarianCommand() *CreateLibrarianCommand {
	cmd := &CreateLibrarianCommand{
		fs: flag.NewFlagSet("create-librarian", flag.ContinueOnError),
	}
	cmd.fs.StringVar(&cmd.username, "username", "", "Librarian username (required)")
	cmd.fs.StringVar(&cmd.email, "email", "", "Librarian email (required)")
	cmd.fs.StringVar(&cmd.fullName, "full-name", "", "Librarian display name")
	cmd.fs.StringVar(&cmd.password, "password", "", "Login password (optional; required for local auth mode)")
	return cmd
}

// ParseFlags parses command-line arguments.
func (cmd *CreateLibrarianCommand) ParseFlags(args []string) error {
	if err := cmd.fs.Parse(args); err != nil {
		return err
	}
	if cmd.username == "" {
		return errors.New("-username is required")
	}
	if cmd.email == "" {
		return errors.New("-email is required")
	}
	if !strings.Contains(cmd.email, "@") {
		return errors.New("email must contain '@' symbol")
	}
	return nil
}

// Run creates the librarian row and provisions the credential.
func (cmd *CreateLibrarianCommand) Run() error {
	cfg := config.NewConfig()

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	repo := librarians.NewRepository(db.DB)
	librarian := &entities.Librarian{
		Username: cmd.username,
		Email:    cmd.email,
		FullName: cmd.fullName,
	}
	if err := repo.Create(librarian); err != nil {
		return fmt.Errorf("failed to create librarian: %w", err)
	}

	if cmd.password != "" {
		service := auth.NewService(db.DB, cfg.Auth)
		if err := service.Provision(cmd.email, cmd.password); err != nil {
			return fmt.Errorf("failed to provision credential: %w", err)
		}
	}

	fmt.Printf("Created librarian %q (%s)\n", cmd.username, cmd.email)
	return nil
}
