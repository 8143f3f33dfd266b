package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotunisia/internal/player"
	"github.com/desertthunder/spotunisia/internal/shared"
	"github.com/desertthunder/spotunisia/internal/ui"
	"github.com/urfave/cli/v3"
)

// Play launches the interactive terminal player.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, closer, err := shared.NewFileLogger(r.config.Log)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer closer.Close()
	r.SetLogger(fileLogger)

	if err := r.authorize(ctx); err != nil {
		return err
	}

	medium := player.NewProcessMedium(r.config.Player.Command, r.config.Player.Args, r.logger)
	if err := medium.Available(); err != nil {
		return fmt.Errorf("%w (install ffmpeg or set player.command)", err)
	}
	defer medium.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	controller := player.NewController(medium,
		player.WithSource(r.resolver.Source),
		player.WithLogger(r.logger),
		player.WithVolume(r.config.Player.Volume),
	)
	defer controller.Close()

	medium.OnEnded(func() {
		if _, err := controller.OnItemEnded(ctx); err != nil {
			r.logger.Warn("failed to advance queue", "error", err)
		}
	})

	model := ui.NewModel(ctx, r.loader, controller,
		ui.WithDownloader(r.downloader(), r.config.Player.DownloadDir),
		ui.WithLogger(r.logger),
	)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
