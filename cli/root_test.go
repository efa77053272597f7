package cli

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "arenanet", cmd.Use)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"server", "bot"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestBotCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	bot, _, err := cmd.Find([]string{"bot"})
	require.NoError(t, err)

	count := bot.Flags().Lookup("count")
	require.NotNil(t, count)
	assert.Equal(t, "1", count.DefValue)
	assert.NotNil(t, bot.Flags().Lookup("url"))
	assert.NotNil(t, bot.Flags().Lookup("seed"))
}

func TestBotCommandRejectsZeroCount(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"bot", "--count", "0"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	assert.ErrorContains(t, err, "bot count")
}

func TestConfigConversion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arena.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[Server]
Address = "127.0.0.1:0"
Seed = 9

[Client]
TargetLatencyMs = 200

[Simulation]
TickRate = 30
`), 0o644))

	opts := &RootOptions{ConfigFile: path}
	cfg, err := opts.Load()
	require.NoError(t, err)

	srv := serverConfig(cfg)
	assert.Equal(t, "127.0.0.1:0", srv.Address)
	assert.Equal(t, time.Second/30, srv.Sim.FixedStep)
	assert.Equal(t, int64(9), srv.Sim.Seed)
	assert.Equal(t, 60, srv.Sim.AntilagWindow)

	cl := clientConfig(cfg)
	assert.Equal(t, 200*time.Millisecond, cl.TargetLatency)
	assert.Equal(t, time.Second/30, cl.FixedStep)
	assert.Equal(t, "player", cl.UserName)
}
