// Command goemerald is a headless demo runner: load a ROM, run N frames
// with no host windowing/audio/input backend attached, and optionally dump
// periodic frame snapshots as half-block Unicode text for inspection.
// Mirrors cmd/jeebie/main.go's urfave/cli flag layout, retargeted from the
// Game Boy's RGBA frame buffer to the GBA's RGB565 one.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hallowmere/goemerald"
	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "goemerald"
	app.Description = "A headless GBA core runner"
	app.Usage = "goemerald [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the ROM file",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run",
			Value: 1,
		},
		cli.IntFlag{
			Name:  "snapshot-interval",
			Usage: "Save frame snapshots every N frames (0 = disabled)",
			Value: 0,
		},
		cli.StringFlag{
			Name:  "snapshot-dir",
			Usage: "Directory to save frame snapshots (default: temp directory)",
		},
		cli.StringFlag{
			Name:  "save-state",
			Usage: "Write a save state blob to this path after the run completes",
		},
		cli.StringFlag{
			Name:  "load-state",
			Usage: "Load a save state blob from this path before running",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("goemerald run failed", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() > 0 {
			romPath = c.Args().Get(0)
		} else {
			cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
	}

	frames := c.Int("frames")
	if frames <= 0 {
		return errors.New("--frames must be a positive value")
	}

	romData, err := os.ReadFile(romPath)
	if err != nil {
		return fmt.Errorf("reading rom: %w", err)
	}

	core := goemerald.New()
	if err := core.LoadROM(romData); err != nil {
		return fmt.Errorf("loading rom: %w", err)
	}

	if statePath := c.String("load-state"); statePath != "" {
		blob, err := os.ReadFile(statePath)
		if err != nil {
			return fmt.Errorf("reading save state: %w", err)
		}
		if err := core.LoadState(blob); err != nil {
			return fmt.Errorf("loading save state: %w", err)
		}
	}

	snapshotInterval := c.Int("snapshot-interval")
	snapshotDir := c.String("snapshot-dir")
	if snapshotInterval > 0 {
		if snapshotDir == "" {
			tempDir, err := os.MkdirTemp("", "goemerald-snapshots-*")
			if err != nil {
				return fmt.Errorf("creating snapshot directory: %w", err)
			}
			snapshotDir = tempDir
		} else if err := os.MkdirAll(snapshotDir, 0o755); err != nil {
			return fmt.Errorf("creating snapshot directory: %w", err)
		}
	}

	romName := strings.TrimSuffix(filepath.Base(romPath), filepath.Ext(romPath))
	header := core.Header()
	slog.Info("running headless", "rom", romPath, "game_code", header.GameCode, "frames", frames)

	for i := 0; i < frames; i++ {
		fb := core.StepFrame(0)

		frameNum := i + 1
		if snapshotInterval > 0 && frameNum%snapshotInterval == 0 {
			path := filepath.Join(snapshotDir, fmt.Sprintf("%s_frame_%d.txt", romName, frameNum))
			if err := saveFrameSnapshot(fb, frameNum, path); err != nil {
				slog.Error("failed to save snapshot", "frame", frameNum, "path", path, "error", err)
			} else {
				slog.Info("saved frame snapshot", "frame", frameNum, "path", path)
			}
		}
		if frameNum%60 == 0 {
			slog.Info("frame progress", "completed", frameNum, "total", frames, "cpu_cycles", core.CPUCycles())
		}
	}

	slog.Info("headless run completed", "frames", frames, "cpu_cycles", core.CPUCycles())

	if statePath := c.String("save-state"); statePath != "" {
		if err := os.WriteFile(statePath, core.SaveState(), 0o644); err != nil {
			return fmt.Errorf("writing save state: %w", err)
		}
		slog.Info("wrote save state", "path", statePath)
	}

	return nil
}
