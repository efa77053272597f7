package cli

import (
	"github.com/spf13/cobra"

	"arenanet/server"
)

type ServerOptions struct {
	*RootOptions
	Address string
}

func NewServerCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the authoritative server",
		Long: `Run the authoritative simulation and accept websocket clients.

Example:
  arenanet server
  arenanet server --config config.toml --address 0.0.0.0:4242`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.Load()
			if err != nil {
				return err
			}
			if opts.Address != "" {
				cfg.Server.Address = opts.Address
			}
			return server.Run(cmd.Context(), serverConfig(cfg))
		},
	}

	cmd.Flags().StringVarP(&opts.Address, "address", "a", "", "listen address (overrides the config file)")

	return cmd
}
