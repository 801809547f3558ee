package main

import "moduleshim/internal/cli"

func main() {
	cli.Execute()
}
