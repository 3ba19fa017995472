package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/oksasatya/go-library-management/internal/application"
	"github.com/oksasatya/go-library-management/internal/infrastructure/postgres"
)

func (a *app) userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	var in application.CreateUserInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an account, prompting for its password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr(), "Password: ")
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			in.Password = pw

			svc, closeFn, err := a.identity(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			u, err := svc.CreateUser(cmd.Context(), in)
			if err != nil {
				return err
			}
			cmd.Printf("created user id=%d email=%s role=%s\n", u.ID, u.Email, u.Role)
			return nil
		},
	}
	create.Flags().StringVar(&in.Name, "name", "", "display name")
	create.Flags().StringVar(&in.Email, "email", "", "login email")
	create.Flags().StringVar(&in.Role, "role", "READER", "LIBRARIAN, ADMIN or READER")
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("email")

	cmd.AddCommand(create)
	return cmd
}

// identity builds an IdentityService backed only by postgres; sessions are
// not touched from the command line.
func (a *app) identity(ctx context.Context) (*application.IdentityService, func(), error) {
	pool, err := postgres.NewPool(ctx, a.cfg.PostgresDSN(), postgres.PoolOptions{MaxConns: 2})
	if err != nil {
		return nil, nil, fmt.Errorf("connect db: %w", err)
	}
	gw := postgres.NewGateway(pool, a.logger)
	svc := application.NewIdentityService(postgres.NewUserRepository(gw), nil, nil, a.logger)
	return svc, pool.Close, nil
}

// readPassword masks input on a terminal and reads one line otherwise, so
// the password can be piped in from scripts.
func readPassword(in io.Reader, out io.Writer, prompt string) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		_, _ = fmt.Fprint(out, prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", errors.New("empty password")
	}
	return line, nil
}
