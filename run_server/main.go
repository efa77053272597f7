package main

import (
	"context"
	"log"
	"os"

	"arenanet/server"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Llongfile)
	cfg := server.DefaultConfig()
	if len(os.Args) > 1 {
		cfg.Address = os.Args[1]
	}
	if err := server.Run(context.Background(), cfg); err != nil {
		log.Fatal(err)
	}
}
