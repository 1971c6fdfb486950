package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/algo-synth/engine"
)

const defaultRenderFile = "out.wav"

type command struct {
	name  string
	usage string
	help  string
	run   func(s *shell, ctx context.Context, args []string)
}

var commands []command

func init() {
	commands = []command{
		{"start", "start", "start audio output", (*shell).start},
		{"stop", "stop", "stop audio output", (*shell).stop},
		{"render", "render <seconds> [file]", "render to a WAV file (default " + defaultRenderFile + ")", (*shell).render},
		{"get", "get <module>.<param>", "print a parameter", (*shell).get},
		{"set", "set <module>.<param> <value>", "change a parameter", (*shell).set},
		{"trigger", "trigger <velocity>", "trigger the envelope (0-127)", (*shell).trigger},
		{"note", "note <pitch> [velocity]", "tune the voice to a MIDI pitch and trigger it", (*shell).note},
		{"params", "params", "list all parameters with their values", (*shell).params},
		{"help", "help", "show this help", (*shell).help},
		{"quit", "quit", "exit", nil},
	}
}

// shell reads one command per line and runs it against the engine.
type shell struct {
	eng         *engine.Engine
	in          *bufio.Scanner
	out         io.Writer
	interactive bool
	overwrite   bool
}

func newShell(eng *engine.Engine, in io.Reader, out io.Writer, interactive bool) *shell {
	return &shell{eng: eng, in: bufio.NewScanner(in), out: out, interactive: interactive}
}

// run executes commands until quit, end of input or cancellation.
func (s *shell) run(ctx context.Context) error {
	for ctx.Err() == nil {
		if s.interactive {
			fmt.Fprint(s.out, "> ")
		}

		if !s.in.Scan() {
			return s.in.Err()
		}

		if s.exec(ctx, s.in.Text()) {
			return nil
		}
	}

	return nil
}

// exec runs one line and reports whether the shell should exit.
func (s *shell) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return false
	}

	name, args := fields[0], fields[1:]
	if name == "exit" || name == "quit" {
		return true
	}

	for _, c := range commands {
		if c.name == name && c.run != nil {
			c.run(s, ctx, args)
			return false
		}
	}

	fmt.Fprintf(s.out, "Unknown command %q. Type 'help' for a list.\n", name)

	return false
}

func (s *shell) start(_ context.Context, _ []string) {
	err := s.eng.Start()
	switch {
	case errors.Is(err, engine.ErrRunning):
		fmt.Fprintln(s.out, "Already running!")
	case err != nil:
		fmt.Fprintf(s.out, "Failed to start: %v\n", err)
	}
}

func (s *shell) stop(_ context.Context, _ []string) {
	err := s.eng.Stop()
	switch {
	case errors.Is(err, engine.ErrNotRunning):
		fmt.Fprintln(s.out, "Not running!")
	case err != nil:
		fmt.Fprintf(s.out, "Failed to stop: %v\n", err)
	}
}

func (s *shell) render(ctx context.Context, args []string) {
	if len(args) == 0 || len(args) > 2 {
		fmt.Fprintln(s.out, "Usage: render <seconds> [file]")
		return
	}

	seconds, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		fmt.Fprintf(s.out, "Invalid duration %q.\n", args[0])
		return
	}

	path := defaultRenderFile
	if len(args) == 2 {
		path = args[1]
	}

	if !strings.HasSuffix(path, ".wav") {
		path += ".wav"
	}

	stats, err := s.eng.Render(ctx, path, seconds, s.overwrite)
	if errors.Is(err, engine.ErrFileExists) {
		if !s.confirm(fmt.Sprintf("File '%s' already exists. Overwrite? [y/N] ", path)) {
			fmt.Fprintln(s.out, "Not overwriting.")
			return
		}

		stats, err = s.eng.Render(ctx, path, seconds, true)
	}

	if err != nil {
		fmt.Fprintf(s.out, "Render failed: %v\n", err)
		return
	}

	if stats.Stopped {
		fmt.Fprintln(s.out, "Stopped the stream to render to file. (Restart with 'start'.)")
	}

	fmt.Fprintf(s.out, "Rendered %.2f s to '%s' in %s (peak %.3f, rms %.3f).\n",
		stats.Duration().Seconds(), stats.Path, stats.Elapsed, stats.Peak, stats.RMS)
}

// confirm asks a yes/no question on the shell's input.
func (s *shell) confirm(question string) bool {
	fmt.Fprint(s.out, question)

	if !s.in.Scan() {
		return false
	}

	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(s.in.Text())), "y")
}

func (s *shell) get(_ context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: get <module>.<param>")
		return
	}

	value, err := s.eng.Params().Get(args[0])
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}

	fmt.Fprintln(s.out, value)
}

func (s *shell) set(_ context.Context, args []string) {
	if len(args) != 2 {
		fmt.Fprintln(s.out, "Usage: set <module>.<param> <value>")
		return
	}

	if err := s.eng.Params().Set(args[0], args[1]); err != nil {
		fmt.Fprintln(s.out, err)
	}
}

func (s *shell) trigger(_ context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: trigger <velocity>")
		return
	}

	velocity, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Invalid velocity %q.\n", args[0])
		return
	}

	if err := s.eng.Trigger(velocity); err != nil {
		fmt.Fprintln(s.out, err)
	}
}

func (s *shell) note(_ context.Context, args []string) {
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintln(s.out, "Usage: note <pitch> [velocity]")
		return
	}

	pitch, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Invalid pitch %q.\n", args[0])
		return
	}

	velocity := 127
	if len(args) == 2 {
		if velocity, err = strconv.Atoi(args[1]); err != nil {
			fmt.Fprintf(s.out, "Invalid velocity %q.\n", args[1])
			return
		}
	}

	if err := s.eng.NoteOn(pitch, velocity); err != nil {
		fmt.Fprintln(s.out, err)
	}
}

func (s *shell) params(_ context.Context, _ []string) {
	tree := s.eng.Params()
	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)

	for _, path := range tree.Paths() {
		value, err := tree.Get(path)
		if err != nil {
			continue
		}

		fmt.Fprintf(w, "  %s\t%s\n", path, value)
	}

	w.Flush()
}

func (s *shell) help(_ context.Context, _ []string) {
	fmt.Fprintln(s.out, "Available commands:")

	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	for _, c := range commands {
		fmt.Fprintf(w, "  %s\t%s\n", c.usage, c.help)
	}

	w.Flush()

	fmt.Fprintf(s.out, "Chain: %s\n", strings.Join(s.eng.Chain(), " -> "))
}
