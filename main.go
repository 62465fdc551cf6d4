package main

import cmd "github.com/dreamforge-ai/dreamforge/cmd/dreamforge"

func main() {
	cmd.Execute()
}
