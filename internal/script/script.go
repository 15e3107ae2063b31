// Package script parses and runs line-based operation scripts against a
// session:
//
//	# comment
//	select 1 2
//	merge 0 1
//	split 4 5 6
//	move good 3
//	undo
//	redo
package script

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/user/spikeclust/internal/session"
	"github.com/user/spikeclust/internal/types"
)

// Command is one parsed script line.
type Command struct {
	Line  int
	Op    string
	Group string
	Args  []int
}

func (c Command) String() string {
	parts := []string{c.Op}
	if c.Group != "" {
		parts = append(parts, c.Group)
	}
	for _, a := range c.Args {
		parts = append(parts, strconv.Itoa(a))
	}
	return strings.Join(parts, " ")
}

// Parse reads commands, skipping blank lines and comments.
func Parse(r io.Reader) ([]Command, error) {
	var cmds []Command
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = strings.TrimSpace(text[:i])
		}
		if text == "" {
			continue
		}
		cmd, err := parseLine(line, strings.Fields(text))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		cmds = append(cmds, cmd)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return cmds, nil
}

func parseLine(line int, fields []string) (Command, error) {
	cmd := Command{Line: line, Op: strings.ToLower(fields[0])}
	args := fields[1:]
	switch cmd.Op {
	case "undo", "redo":
		if len(args) != 0 {
			return cmd, fmt.Errorf("%s takes no arguments", cmd.Op)
		}
		return cmd, nil
	case "move":
		if len(args) == 0 {
			return cmd, fmt.Errorf("move needs a group")
		}
		cmd.Group, args = args[0], args[1:]
	case "select", "merge", "split":
	default:
		return cmd, fmt.Errorf("unknown command %q", fields[0])
	}
	for _, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return cmd, fmt.Errorf("%s: bad id %q", cmd.Op, a)
		}
		cmd.Args = append(cmd.Args, n)
	}
	return cmd, nil
}

func clusterIDs(args []int) []types.ClusterID {
	out := make([]types.ClusterID, len(args))
	for i, a := range args {
		out[i] = types.ClusterID(a)
	}
	return out
}

func spikeIDs(args []int) []types.SpikeID {
	out := make([]types.SpikeID, len(args))
	for i, a := range args {
		out[i] = types.SpikeID(a)
	}
	return out
}

// Exec runs one command. The returned string summarises its outcome.
func Exec(s *session.Session, cmd Command) (string, error) {
	var (
		up  types.Update
		err error
	)
	switch cmd.Op {
	case "select":
		if err := s.Select(clusterIDs(cmd.Args)); err != nil {
			return "", err
		}
		return fmt.Sprintf("selected %d spikes", len(s.SelectedSpikes())), nil
	case "merge":
		up, err = s.Merge(clusterIDs(cmd.Args))
	case "split":
		up, err = s.Split(spikeIDs(cmd.Args))
	case "move":
		up, err = s.Move(clusterIDs(cmd.Args), cmd.Group)
	case "undo", "redo":
		var ok bool
		if cmd.Op == "undo" {
			up, ok, err = s.Undo()
		} else {
			up, ok, err = s.Redo()
		}
		if err == nil && !ok {
			return "nothing to " + cmd.Op, nil
		}
	default:
		return "", fmt.Errorf("unknown command %q", cmd.Op)
	}
	if err != nil {
		return "", err
	}
	return up.String(), nil
}

// Run executes cmds in order and writes one line per command to w. It stops
// at the first failing command.
func Run(s *session.Session, cmds []Command, w io.Writer) error {
	for _, cmd := range cmds {
		out, err := Exec(s, cmd)
		if err != nil {
			return fmt.Errorf("line %d (%s): %w", cmd.Line, cmd, err)
		}
		if w != nil {
			fmt.Fprintf(w, "%d\t%s\t%s\n", cmd.Line, cmd, out)
		}
	}
	return nil
}
