package main

import "github.com/kamal-hamza/vx-cli/cmd"

func main() {
	cmd.Execute()
}
