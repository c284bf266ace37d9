package main

import "github.com/2kai2kai2/cartographer/internal/cli"

func main() {
	cli.Execute()
}
