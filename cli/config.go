package cli

import (
	"time"

	"arenanet/client"
	"arenanet/server"
	"arenanet/transport"
	"arenanet/utils"
)

func fixedStep(cfg *utils.Config) time.Duration {
	return time.Second / time.Duration(cfg.Simulation.TickRate)
}

func transportConfig(cfg *utils.Config) transport.Config {
	return transport.Config{
		SendQueueSize:  cfg.Transport.SendQueueSize,
		RecvQueueSize:  cfg.Transport.RecvQueueSize,
		WriteTimeout:   time.Duration(cfg.Transport.WriteTimeoutMs) * time.Millisecond,
		ReadLimit:      cfg.Transport.ReadLimit,
		OriginPatterns: cfg.Transport.OriginPatterns,
	}
}

func serverConfig(cfg *utils.Config) server.Config {
	sim := server.DefaultSimConfig()
	sim.FixedStep = fixedStep(cfg)
	sim.SnapshotEvery = cfg.Server.SnapshotEvery
	sim.MaxPacketSize = cfg.Simulation.MaxPacketSize
	sim.AntilagWindow = cfg.Server.AntilagTicks
	sim.CommandQueueSize = cfg.Client.CommandBufferSize
	sim.MaxPlayers = cfg.Server.MaxPlayers
	if cfg.Server.Seed != 0 {
		sim.Seed = cfg.Server.Seed
	}
	return server.Config{
		Address:      cfg.Server.Address,
		PollInterval: time.Duration(cfg.Server.PollIntervalMs) * time.Millisecond,
		Sim:          sim,
		Transport:    transportConfig(cfg),
	}
}

func clientConfig(cfg *utils.Config) client.Config {
	return client.Config{
		UserName:          cfg.Client.UserName,
		FixedStep:         fixedStep(cfg),
		CommandBufferSize: cfg.Client.CommandBufferSize,
		RemoteBufferSize:  cfg.Client.RemoteBufferSize,
		TargetLatency:     time.Duration(cfg.Client.TargetLatencyMs) * time.Millisecond,
		MaxPacketSize:     cfg.Simulation.MaxPacketSize,
	}
}
