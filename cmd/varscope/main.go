package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/varscope/varscope/internal/config"
	"github.com/varscope/varscope/internal/mcp"
)

var (
	version = "0.1.0"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	help := flag.Bool("help", false, "Show help and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("varscope version %s\n", version)
		os.Exit(0)
	}

	if *help {
		printHelp()
		os.Exit(0)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	server := mcp.NewServer(cfg)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Println("Shutting down...")
		server.Close()
		os.Exit(0)
	}()

	log.Println("varscope server starting...")
	if err := server.ServeStdio(); err != nil {
		server.Close()
		log.Fatalf("Server error: %v", err)
	}
	server.Close()
}

func printHelp() {
	fmt.Println(`varscope: DAP Variable Inspection Server

A Model Context Protocol (MCP) server that observes a Debug Adapter
Protocol (DAP) session, caches a filtered snapshot of the debuggee's
visible variables, and lazily enriches entries (including dataframe and
array-like values) by evaluating introspection helpers in the paused
debuggee.

USAGE:
    varscope [OPTIONS]

OPTIONS:
    -config <path>     Path to configuration file (JSON)
    -version           Show version and exit
    -help              Show this help message

CONFIGURATION:
    Create a JSON configuration file to customize behavior:

    {
        "excludedTypes": "module;function;builtin_function_or_method;type",
        "defaultPageSize": 100,
        "maxSessions": 10
    }

MCP INTEGRATION:
    Add to your MCP client configuration:

    {
        "mcpServers": {
            "varscope": {
                "command": "varscope"
            }
        }
    }`)
}
