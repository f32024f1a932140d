package onboarding

import (
	"fmt"
	"io"
	"time"

	"github.com/moorebrett0/tamapet/internal/pet"
)

// Printer writes the terminal greeting. Delay paces the typewriter effect;
// zero prints instantly.
type Printer struct {
	Out   io.Writer
	Delay time.Duration
}

// Check is one line of the startup checklist.
type Check struct {
	Label string
	OK    bool
}

// Hatch prints the first-run greeting for a pet with no saved stats.
func (p Printer) Hatch(name string, s pet.State) {
	fmt.Fprintln(p.Out)
	p.slow("  crk... crk...")
	fmt.Fprintln(p.Out)
	p.pause(500 * time.Millisecond)

	p.slow(fmt.Sprintf("  hi. i'm %s.", name))
	p.slow(fmt.Sprintf("  i'm feeling %s. take care of me.", s.Mood))
	fmt.Fprintln(p.Out)
}

// Startup prints the startup checklist.
func (p Printer) Startup(name string, checks []Check) {
	fmt.Fprintln(p.Out, "  starting up...")

	for _, c := range checks {
		p.pause(200 * time.Millisecond)
		mark := "✓"
		if !c.OK {
			mark = "✗"
		}
		fmt.Fprintf(p.Out, "  %s %s\n", mark, c.Label)
	}

	fmt.Fprintln(p.Out)
	p.slow(fmt.Sprintf("  %s is alive. don't forget about me.", name))
	fmt.Fprintln(p.Out)
}

func (p Printer) pause(d time.Duration) {
	if p.Delay > 0 {
		time.Sleep(d)
	}
}

func (p Printer) slow(text string) {
	if p.Delay <= 0 {
		fmt.Fprintln(p.Out, text)
		return
	}
	for _, ch := range text {
		fmt.Fprint(p.Out, string(ch))
		time.Sleep(p.Delay)
	}
	fmt.Fprintln(p.Out)
}
