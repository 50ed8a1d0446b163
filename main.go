package main

import "github.com/braid-dev/brd/cmd"

func main() {
	cmd.Execute()
}
