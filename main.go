// Copyright 2026 The pureflashblade-mcp Authors

package main

import "github.com/pureflashblade/pureflashblade-mcp/cmd"

func main() {
	cmd.Execute()
}
