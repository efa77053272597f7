package cli

import (
	"log"

	"github.com/spf13/cobra"

	"arenanet/utils"
)

// RootOptions holds the flags shared by every command.
type RootOptions struct {
	ConfigFile string
}

// Load reads the config file, or returns the defaults when none was given.
func (o *RootOptions) Load() (*utils.Config, error) {
	if o.ConfigFile == "" {
		return utils.DefaultConfig(), nil
	}
	return utils.ReadTOML(o.ConfigFile)
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "arenanet",
		Short: "Authoritative top-down arena shooter",
		Long:  "Runs the authoritative arena server or headless bot clients that predict, reconcile and interpolate against it.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetFlags(log.LstdFlags | log.Llongfile)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "path to a TOML config file")

	cmd.AddCommand(NewServerCommand(opts))
	cmd.AddCommand(NewBotCommand(opts))

	return cmd
}
