package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"device-maintenance/backend/internal/logger"
	"device-maintenance/backend/internal/server/middleware"
	userdomain "device-maintenance/backend/internal/user/domain"
)

type cli struct {
	open    BackendFactory
	as      string
	verbose bool

	log     zerolog.Logger
	backend *Backend
}

func newRootCmd(open BackendFactory) *cobra.Command {
	c := &cli{open: open}
	root := &cobra.Command{
		Use:           "maintctl",
		Short:         "Operate the device maintenance service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := "warn"
			if c.verbose {
				level = "debug"
			}
			l, err := logger.New(logger.Config{Level: level, Output: "stderr"})
			if err != nil {
				return err
			}
			c.log = l
			c.backend, err = c.open(cmd.Context(), c.log)
			return err
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if c.backend == nil || c.backend.Close == nil {
				return nil
			}
			return c.backend.Close()
		},
	}
	root.PersistentFlags().StringVar(&c.as, "as", userdomain.AdminUsername, "stored user whose permissions the command runs with")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "debug logging on stderr")

	root.AddCommand(c.syncCmd(), c.usersCmd(), c.reportCmd())
	return root
}

// identity resolves --as and attaches it to the command context.
func (c *cli) identity(ctx context.Context) (context.Context, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	id, err := c.backend.Resolve(ctx, c.as)
	if err != nil {
		return nil, fmt.Errorf("resolve --as %q: %w", c.as, err)
	}
	return middleware.WithIdentity(ctx, id), nil
}

// audit records a CLI action under the acting user.
func (c *cli) audit(ctx context.Context, action, resource string, meta any) {
	if c.backend.Audit == nil {
		return
	}
	b, _ := json.Marshal(meta)
	c.backend.Audit.LogEvent(ctx, c.as, action, resource, string(b))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
