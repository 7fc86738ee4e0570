package cli

import (
	"errors"
	"fmt"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/planfiles/fingerd/internal/client"
)

// NewQueryCmd creates the query subcommand, the built-in finger client.
// It exits zero on any server response and non-zero on transport failure.
func NewQueryCmd() *cobra.Command {
	var (
		long bool
		port int
	)

	cmd := &cobra.Command{
		Use:   "query HOST [SELECTOR]",
		Short: "Query a finger server for plan files",
		Long: `Query a finger server. With no selector the server returns its full
project listing; a selector of the form year/project fetches one file.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			host := args[0]
			selector := ""
			if len(args) == 2 {
				selector = args[1]
			}

			response, err := client.Query(cmd.Context(), logger, host, port, selector, long)
			if err != nil {
				if errors.Is(err, syscall.ECONNREFUSED) {
					logger.Error().
						Str("host", host).Int("port", port).
						Msg("connection refused; make sure the finger server is running and the port is correct")
				}
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(response))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&long, "long", "l", false, "use long format (more details)")
	cmd.Flags().IntVarP(&port, "port", "p", client.DefaultPort, "port number")

	return cmd
}
