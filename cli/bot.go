package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"arenanet/client"
	"arenanet/transport"
	"arenanet/utils"
	"arenanet/world"
)

type BotOptions struct {
	*RootOptions
	URL   string
	Count int
	Seed  int64
}

func NewBotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Connect headless bot clients to a server",
		Long: `Connect one or more bots that wander, aim and shoot, running the full
client side prediction and interpolation pipeline.

Example:
  arenanet bot --count 4
  arenanet bot --url ws://10.0.0.2:4242 --seed 42`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.Load()
			if err != nil {
				return err
			}
			if opts.URL != "" {
				cfg.Client.URL = opts.URL
			}
			if opts.Count < 1 {
				return fmt.Errorf("bot count must be positive, got %d", opts.Count)
			}
			return runBots(cmd.Context(), cfg, opts.Count, opts.Seed)
		},
	}

	cmd.Flags().StringVarP(&opts.URL, "url", "u", "", "server websocket url (overrides the config file)")
	cmd.Flags().IntVarP(&opts.Count, "count", "n", 1, "number of bots to connect")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 1, "seed for the bots' behaviour")

	return cmd
}

func runBots(ctx context.Context, cfg *utils.Config, count int, seed int64) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < count; i++ {
		i := i
		g.Go(func() error {
			return runBot(ctx, cfg, fmt.Sprintf("%s-%d", cfg.Client.UserName, i), seed+int64(i))
		})
	}
	return g.Wait()
}

func runBot(ctx context.Context, cfg *utils.Config, name string, seed int64) error {
	endpoint, err := transport.Dial(ctx, cfg.Client.URL, transportConfig(cfg))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	defer endpoint.Close()

	gameCfg := clientConfig(cfg)
	gameCfg.UserName = name
	game := client.NewGame(endpoint, gameCfg, world.SystemTime)
	game.OnShoot(func(e world.ShootEvent) {
		if p := game.Player(); p != nil && e.ShooterID == p.ID() {
			log.Printf("[C] %s shot confirmed, command %d hit (%.2f,%.2f)", name, e.CommandID, e.Hit.X, e.Hit.Y)
		}
	})

	bot := client.NewBot(seed)
	frame := time.Second / time.Duration(cfg.Client.FrameRate)
	err = game.Run(ctx, frame, bot.Sample)
	if errors.Is(err, context.Canceled) || transport.IsClosed(err) {
		return nil
	}
	return err
}
