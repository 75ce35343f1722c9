// Package main provides sonyimg-transfer, a CLI that walks a Sony
// imaging device's media storage and downloads every original file to
// a local directory.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sonyimg/gateway/internal/cliutil"
	"github.com/sonyimg/gateway/internal/mediawalker"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "sonyimg-transfer",
		Usage: "Download every original file from a Sony imaging device",
		Flags: append(cliutil.CommonFlags,
			&cli.StringFlag{
				Name:  "folder-view",
				Usage: "Group downloaded files: flat or date",
				Value: "flat",
			},
			&cli.StringFlag{
				Name:  "output-dir",
				Usage: "Directory to save downloaded files",
				Value: ".",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite files that already exist locally",
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

	mode := mediawalker.ModeFlat
	if c.String("folder-view") == "date" {
		mode = mediawalker.ModeDate
	}

	p, err := cliutil.ResolveDevice(ctx, c)
	if err != nil {
		return err
	}

	cliutil.PrintDeviceHeader("Transferring media", p.DeviceName)

	walker := mediawalker.New(p, mode)
	outputDir := c.String("output-dir")
	force := c.Bool("force")

	count := 0

	for {
		item, ok, err := walker.Next(ctx)
		if err != nil {
			return fmt.Errorf("media walk failed: %w", err)
		}

		if !ok {
			break
		}

		url := item.OriginalURL()
		if url == "" {
			cliutil.PrintWarning(fmt.Sprintf("skipping %s: no original URL", item.Title))
			continue
		}

		dir := outputDir
		if item.Folder != "" {
			dir = filepath.Join(outputDir, item.Folder)
		}

		dest := filepath.Join(dir, filepath.Base(url))

		if !force {
			if _, err := os.Stat(dest); err == nil {
				continue
			}
		}

		if err := downloadFile(url, dir, dest); err != nil {
			cliutil.PrintError(fmt.Sprintf("failed to download %s: %v", item.Title, err))
			continue
		}

		fmt.Printf("  %s\n", dest)

		count++
	}

	cliutil.PrintSuccess(fmt.Sprintf("Transferred %d file(s)", count))

	return nil
}

func downloadFile(url, dir, dest string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	client := &http.Client{Timeout: 60 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, resp.Body)

	return err
}
