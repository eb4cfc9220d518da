// Command admin creates a local user account from the terminal, prompting
// for the password without echo. Useful for seeding an account before the
// registration form is reachable.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"syscall"

	"github.com/avoronov/secretwall/internal/common"
	"github.com/avoronov/secretwall/internal/logging"
	"github.com/avoronov/secretwall/internal/server/config"
	"github.com/avoronov/secretwall/internal/server/storage"
	"github.com/avoronov/secretwall/internal/server/strategies"
	"golang.org/x/term"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()
	cfg := config.LoadConfig()

	fmt.Print("Username: ")
	reader := bufio.NewReader(os.Stdin)
	username, err := reader.ReadString('\n')
	if err != nil {
		return err
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return errors.New("username is required")
	}

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return err
	}
	if len(password) == 0 {
		return errors.New("password is required")
	}
	defer common.WipeByteArray(password)

	sm, err := storage.NewPostgresManager(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer sm.Close()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	local := strategies.NewLocalStrategy(sm.Users(), logger)

	user, err := local.Register(ctx, username, string(password))
	if err != nil {
		if errors.Is(err, common.ErrDuplicateUsername) {
			return fmt.Errorf("username %q is already taken", username)
		}
		return err
	}

	fmt.Printf("created user %s (id=%s)\n", user.Username, user.ID)
	return nil
}
