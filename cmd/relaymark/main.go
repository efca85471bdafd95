package main

import "relaymark/internal/cli"

func main() {
	cli.Execute()
}
