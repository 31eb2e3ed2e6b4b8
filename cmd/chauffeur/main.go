package main

import "github.com/leapstack-labs/chauffeur/internal/cli"

func main() {
	cli.Execute()
}
