// Package main is the curricula maintenance CLI.
package main

import "github.com/curricula/backend/cmd/curricula/commands"

func main() {
	commands.Execute()
}
