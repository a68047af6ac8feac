package main

import "chatapp-servers/internal/commands"

func main() {
	commands.Execute()
}
