package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/relistr/mediakit/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app, err := cli.Bootstrap(ctx)
	if err != nil {
		os.Stderr.WriteString("mediactl: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = app.Close()
	}()

	root := cli.NewRootCommand(app)
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
