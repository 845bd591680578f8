// Package main provides the entry point for minicache.
// minicache is a cycle-stepped write-back cache simulator built on Akita.
//
// For the full CLI, use: go run ./cmd/cachesim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("minicache - Direct-Mapped Write-Back Cache Simulator")
	fmt.Println("Built on Akita simulation framework")
	fmt.Println("")
	fmt.Println("Usage: cachesim <command> [options]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  run        Run traffic through the cache and the reference model")
	fmt.Println("  config     Write the default configuration files")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/cachesim --help' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/cachesim' instead.")
	}
}
