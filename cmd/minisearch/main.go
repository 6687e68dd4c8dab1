package main

import "github.com/SiddhantNarel/mini-search-engine/internal/cli"

func main() {
	cli.Execute()
}
