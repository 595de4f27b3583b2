package main

import (
	"guildexp/cmd/guildexp/commands"
	"guildexp/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
