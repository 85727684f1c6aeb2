package main

import "github.com/pfrederiksen/park-fees/internal/cli"

func main() {
	cli.Execute()
}
