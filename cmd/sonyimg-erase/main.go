// Package main provides sonyimg-erase, a CLI that deletes the most
// recently captured picture from a Sony imaging device.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sonyimg/gateway/internal/cliutil"
	"github.com/sonyimg/gateway/internal/snapshot"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "sonyimg-erase",
		Usage: "Delete the most recently captured picture on a Sony imaging device",
		Flags: append(cliutil.CommonFlags,
			&cli.BoolFlag{
				Name:  "delete",
				Usage: "Confirm deletion; without it, sonyimg-erase is a no-op dry run",
			},
		),
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		cliutil.PrintError(err.Error())
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	ctx := context.Background()

	p, err := cliutil.ResolveDevice(ctx, c)
	if err != nil {
		return err
	}

	cliutil.PrintDeviceHeader("Erasing most recent picture", p.DeviceName)

	if !c.Bool("delete") {
		cliutil.PrintWarning("dry run: pass --delete to actually erase the file")
		return nil
	}

	if err := snapshot.DeletePicture(ctx, p); err != nil {
		return fmt.Errorf("erase failed: %w", err)
	}

	cliutil.PrintSuccess("Picture erased")

	return nil
}
