package main

import "confattach/cmd/confattach/commands"

func main() {
	commands.Execute()
}
