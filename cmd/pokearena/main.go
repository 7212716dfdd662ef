package main

import "github.com/mcoot/pokearena/internal/cli"

func main() {
	cli.Execute()
}
