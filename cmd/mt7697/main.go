package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"

	"github.com/vitaminmoo/mt7697-tool/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var c cli.CLI
	kctx := kong.Parse(&c,
		kong.Name("mt7697"),
		kong.Description("Drive pins, a buzzer and an ultrasonic sensor on an MT7697 board over BLE."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	err := kctx.Run(&c)
	kctx.FatalIfErrorf(err)
}
