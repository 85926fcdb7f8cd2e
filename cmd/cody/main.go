package main

import "github.com/tessro/cody/internal/cli"

func main() {
	cli.Execute()
}
