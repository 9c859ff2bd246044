package main

import "github.com/nfrund/authshell/cmd/authshell-cli/cmd"

func main() {
	cmd.Execute()
}
