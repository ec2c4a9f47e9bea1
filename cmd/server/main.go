package main

import (
	"fmt"
	"log"

	"compliance-hub/internal/config"
	"compliance-hub/internal/database"
	"compliance-hub/internal/server"
)

func main() {
	cfg := config.Load()
	database.Timeout = cfg.DBTimeout
	database.Init(cfg.DBDSN)

	r := server.NewRouter(cfg)

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("starting server on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
