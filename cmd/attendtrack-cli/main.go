package main

import (
	"attendtrack-backend/cmd/attendtrack-cli/commands"
	"context"
)

func main() {
	commands.ExecuteContext(context.Background())
}
