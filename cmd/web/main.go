// Package main is the entry point for the infra-nli API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/infra-nli/internal/config"
	"github.com/infra-nli/internal/web"
)

func main() {
	port := flag.Int("port", config.Get().Server.Port, "Port to run the API server on")
	flag.Parse()

	fmt.Println("🚀 Infra NLI - API Server")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := web.NewServer(*port)
	if err := server.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
