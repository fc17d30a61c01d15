package main

import "github.com/deckforge/server/internal/cli"

func main() {
	cli.Execute()
}
