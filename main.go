package main

import "github.com/agentic-research/kinbranch/cmd"

func main() {
	cmd.Execute()
}
