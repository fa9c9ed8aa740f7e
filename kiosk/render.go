// Copyright (c) 2026 Riplive.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package kiosk

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"riplive/models"
)

// Renderer draws the current screen. A nil session means standby.
// Notice shows a transient helper banner for scan outcomes and encoder
// status; it never replaces the stage screen.
type Renderer interface {
	Render(s *models.KioskSession, now time.Time)
	Notice(message string)
}

// TerminalRenderer writes the screen as text lines. It stands in for
// the real display surface during development and in headless installs.
type TerminalRenderer struct {
	Out io.Writer
}

func (r *TerminalRenderer) Render(s *models.KioskSession, now time.Time) {
	if s == nil {
		fmt.Fprintln(r.Out, "[attract] scan a pack to start")
		return
	}

	switch s.Status {
	case models.StatusCountdown:
		fmt.Fprintf(r.Out, "[countdown] pack %s rips in %s (code %s)\n",
			s.PackCode, untilText(s.CountdownEndsAt, now), s.Code)
	case models.StatusLive:
		fmt.Fprintf(r.Out, "[live] ripping %s, reveal %s\n",
			s.PackCode, untilText(s.LiveEndsAt, now))
	case models.StatusReveal:
		name := "?"
		if s.Reveal != nil {
			name = fmt.Sprintf("%s (%s %s)", s.Reveal.Name, s.Reveal.Set, s.Reveal.Number)
		}
		fmt.Fprintf(r.Out, "[reveal] %s, back to attract %s\n",
			name, untilText(s.RevealEndsAt, now))
	default:
		fmt.Fprintf(r.Out, "[%s] session %s\n", s.Status, s.Code)
	}
}

func (r *TerminalRenderer) Notice(message string) {
	fmt.Fprintf(r.Out, "[notice] %s\n", message)
}

func untilText(t *time.Time, now time.Time) string {
	if t == nil {
		return "soon"
	}
	return humanize.RelTime(now, *t, "ago", "from now")
}
