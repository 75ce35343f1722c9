// Package main provides sonyimg-snap, a one-shot CLI that takes a
// still picture on a Sony imaging device and optionally downloads its
// postview image. Both the postview and original store modes save the
// postview; the full-resolution original is not fetched.
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
	"github.com/sonyimg/gateway/internal/snapshot"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "sonyimg-snap",
		Usage: "Take a still picture on a Sony imaging device",
		Flags: append(cliutil.CommonFlags,
			&cli.StringFlag{
				Name:  "store-mode",
				Usage: "What to keep locally: none, postview, original (original also saves the postview image)",
				Value: "postview",
			},
			&cli.StringFlag{
				Name:  "output-dir",
				Usage: "Directory to save downloaded images",
				Value: ".",
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

	mode, err := snapshot.ParseStoreMode(c.String("store-mode"))
	if err != nil {
		return err
	}

	p, err := cliutil.ResolveDevice(ctx, c)
	if err != nil {
		return err
	}

	cliutil.PrintDeviceHeader("Taking a picture", p.DeviceName)

	postviewURL, err := snapshot.SnapPicture(ctx, p)
	if err != nil {
		return fmt.Errorf("snap failed: %w", err)
	}

	cliutil.PrintSuccess("Picture captured")
	fmt.Printf("  Postview URL: %s\n", postviewURL)

	if mode == snapshot.StoreNone {
		return nil
	}

	return download(postviewURL, c.String("output-dir"))
}

func download(url, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	client := &http.Client{Timeout: 30 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("failed to download postview: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("postview download returned status %d", resp.StatusCode)
	}

	dest := filepath.Join(outputDir, filepath.Base(url))

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("failed to save %s: %w", dest, err)
	}

	cliutil.PrintSuccess(fmt.Sprintf("Saved %s", dest))

	return nil
}
