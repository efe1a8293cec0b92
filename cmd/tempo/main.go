// Tempo: personal productivity MCP server.
//
// Tasks, journaling, and a pattern-analysis engine that turns the last 30
// days of activity into insights and situational nudges, all backed by a
// local SQLite database.
//
// Usage:
//
//	tempo serve    # Start MCP server (stdio transport)
package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	tempserver "github.com/mresendiz/tempo/internal/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("tempo v%s\n", tempserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	s, cleanup, err := tempserver.New()
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Stdout belongs to the MCP stdio transport; the stdio server manages
	// its own lifecycle and returns on EOF or signal.
	return server.ServeStdio(s)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `tempo — personal productivity MCP server

Usage:
  tempo serve      Start the MCP server (stdio transport)
  tempo version    Print the version
  tempo help       Show this help

Environment:
  TEMPO_DATA_DIR   Database directory (default ~/.tempo)
  TEMPO_USER       Default user for tool calls (default "default")
`)
}
