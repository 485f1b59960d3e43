package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dgnsrekt/cueline/listen"
	"github.com/dgnsrekt/cueline/rehearsal"
	"github.com/dgnsrekt/cueline/script"
	"github.com/dgnsrekt/cueline/ui"
	"github.com/dustin/go-humanize"
)

const linesSubscriber = "lines"

type lineOptions struct {
	from int
	in   io.Reader
	out  io.Writer
	// readCommands treats each input line as a command. Off when the input
	// belongs to the typed recognizer.
	readCommands bool
	style        string
	width        int
}

// runLines rehearses without the TUI: lines are printed as they come up and
// commands are read one per input line.
func runLines(ctx context.Context, e *rehearsal.Engine, opts lineOptions) error {
	events := e.Subscribe(linesSubscriber, 64)
	defer e.Unsubscribe(linesSubscriber)

	var commands <-chan string
	if opts.readCommands {
		commands = scanCommands(ctx, opts.in)
		fmt.Fprintln(opts.out, faintStyle.Render("enter: next line · p: pause · b: back · n: next scene · q: quit"))
	}

	p := linePrinter{out: opts.out, scene: script.NoScene}
	e.Start(opts.from)

	for {
		select {
		case <-ctx.Done():
			e.Stop()
			return printSummary(opts, e.Summary())

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev.Kind {
			case rehearsal.EventPartnerLine, rehearsal.EventUserLine:
				p.line(e.Script(), ev)
			case rehearsal.EventTranscript:
				said := ev.Transcript
				if said == "" {
					said = "(silence)"
				}
				fmt.Fprintln(opts.out, faintStyle.Render("  ↳ "+said))
			case rehearsal.EventError:
				fmt.Fprintln(opts.out, warnStyle.Render("  ! "+ev.Err.Error()))
				if !opts.readCommands && errors.Is(ev.Err, listen.ErrStartFailed) {
					// Typed input is gone; nothing can advance the user's line.
					e.Stop()
					return printSummary(opts, e.Summary())
				}
			case rehearsal.EventFinished:
				return printSummary(opts, e.Summary())
			}

		case c, ok := <-commands:
			if !ok {
				e.Stop()
				return printSummary(opts, e.Summary())
			}
			if quit := runCommand(e, c); quit {
				e.Stop()
				return printSummary(opts, e.Summary())
			}
		}
	}
}

func runCommand(e *rehearsal.Engine, c string) (quit bool) {
	switch strings.TrimSpace(c) {
	case "", "next":
		e.Advance()
	case "p", "pause":
		e.TogglePause()
	case "b", "back":
		e.Back()
	case "n":
		e.NextScene()
	case "N":
		e.PrevScene()
	case "q", "quit":
		return true
	}
	return false
}

// scanCommands feeds input lines to a channel closed on EOF.
func scanCommands(ctx context.Context, r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case ch <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

type linePrinter struct {
	out   io.Writer
	scene int
}

func (p *linePrinter) line(s *script.Script, ev rehearsal.Event) {
	if ev.Line == nil {
		return
	}
	l := *ev.Line
	if l.SceneIndex != p.scene {
		p.scene = l.SceneIndex
		if sc, ok := s.Scene(l.SceneIndex); ok {
			fmt.Fprintln(p.out, "\n"+headingStyle.Render(sc.Heading))
		}
	}

	text := l.Text
	if len(l.Tones) > 0 {
		text = directionStyle.Render("("+strings.Join(l.Tones, ", ")+")") + " " + text
	}
	if ev.Kind == rehearsal.EventUserLine {
		if ev.State.ImprovMode {
			text = faintStyle.Render("(your line)")
		}
		fmt.Fprintf(p.out, "%s %s\n", userStyle.Render(l.Speaker+":"), text)
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", partnerStyle.Render(l.Speaker+":"), text)
}

func printSummary(opts lineOptions, sum rehearsal.Summary) error {
	md := sum.Markdown()
	out, err := ui.RenderMarkdown(md, opts.style, opts.width)
	if err != nil {
		out = md
	}
	if _, err := fmt.Fprint(opts.out, out); err != nil {
		return fmt.Errorf("unable to write summary: %w", err)
	}
	if !sum.StartedAt.IsZero() {
		fmt.Fprintln(opts.out, faintStyle.Render("  started "+humanize.Time(sum.StartedAt)))
	}
	return nil
}
