package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version    kong.VersionFlag `short:"v" help:"Show version"`
	Server     ServerCmd        `cmd:"" help:"Run the room API server"`
	CreateRoom CreateRoomCmd    `cmd:"create-room" help:"Create a room and print its seat tokens"`
	Catalog    CatalogCmd       `cmd:"" help:"Inspect the embedded card catalog"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("ventureboard"),
		kong.Description("Authoritative rules engine for asynchronous ventureboard rooms"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
