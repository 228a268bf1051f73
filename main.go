package main

import "github.com/relayproj/relay/frontend/cli/cmd"

func main() {
	cmd.Execute()
}
