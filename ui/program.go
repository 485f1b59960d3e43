// Package ui is the terminal front end of a rehearsal: it shows the script,
// highlights the line in play and maps keys onto engine commands.
package ui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/cueline/rehearsal"
	"github.com/dgnsrekt/cueline/script"
)

// NewProgram returns a new Tea program driving engine.
func NewProgram(ctx context.Context, cfg Config, engine *rehearsal.Engine) *tea.Program {
	log.Debug(
		"Starting cueline",
		"line_numbers", cfg.ShowLineNumbers,
		"mouse", cfg.EnableMouse,
		"width", cfg.GlamourMaxWidth,
		"path", cfg.Path,
	)

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	return tea.NewProgram(newModel(cfg, engine), opts...)
}

// Run blocks until the user quits or ctx is done. When cfg.Path is set the
// script file is watched and edits are reloaded while the engine is at rest.
func Run(ctx context.Context, cfg Config, engine *rehearsal.Engine) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := NewProgram(ctx, cfg, engine)
	defer engine.Unsubscribe(subscriberID)

	if cfg.Path != "" {
		go func() {
			err := script.Watch(ctx, cfg.Path, func() { p.Send(scriptChangedMsg{}) })
			if err != nil {
				log.Error("error watching script", "path", cfg.Path, "error", err)
			}
		}()
	}

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}
