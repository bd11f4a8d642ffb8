// Package parser turns raw event arguments and script lines into typed values.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/board"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/dispatcher"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/game"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/util"
)

// ErrBadArgs is wrapped by every argument error.
var ErrBadArgs = errors.New("bad arguments")

func badArgs(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrBadArgs, fmt.Sprintf(format, a...))
}

// parseUintFromFloat parses a string that may be an integer ("32") or float ("32.00") into uint64.
func parseUintFromFloat(s string) (uint64, error) {
	if v, err := strconv.ParseUint(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f < 0 || f != float64(uint64(f)) {
		return 0, fmt.Errorf("%q is not a valid uint64", s)
	}
	return uint64(f), nil
}

// parseIntFromFloat parses a string that may be an integer or float into int64.
func parseIntFromFloat(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("%q is not a valid int64", s)
	}
	return int64(f), nil
}

func want(args []string, n int) error {
	if len(args) != n {
		return badArgs("expected %d args, got %d", n, len(args))
	}
	return nil
}

// ParsePoint reads "x y" in board pixel space.
func ParsePoint(args []string) (board.Point, error) {
	if err := want(args, 2); err != nil {
		return board.Point{}, err
	}
	x, err := strconv.ParseFloat(util.TrimQuotes(args[0]), 64)
	if err != nil {
		return board.Point{}, badArgs("x: %v", err)
	}
	y, err := strconv.ParseFloat(util.TrimQuotes(args[1]), 64)
	if err != nil {
		return board.Point{}, badArgs("y: %v", err)
	}
	return board.Point{X: x, Y: y}, nil
}

// ParseCell reads a cell index 0..11.
func ParseCell(args []string) (int, error) {
	if err := want(args, 1); err != nil {
		return 0, err
	}
	i, err := parseIntFromFloat(util.TrimQuotes(args[0]))
	if err != nil {
		return 0, badArgs("cell: %v", err)
	}
	if !board.ValidCell(int(i)) {
		return 0, badArgs("cell %d out of range", i)
	}
	return int(i), nil
}

var directionNames = map[string]board.Direction{
	"SOUTHWEST": board.SouthWest,
	"SOUTH":     board.South,
	"SOUTHEAST": board.SouthEast,
	"WEST":      board.West,
	"EAST":      board.East,
	"NORTHWEST": board.NorthWest,
	"NORTH":     board.North,
	"NORTHEAST": board.NorthEast,
}

// ParseDirection reads a numpad direction (1-4, 6-9), its compass abbreviation
// (SW, N, ...) or its full name (southwest, north, ...). Case is ignored.
func ParseDirection(args []string) (board.Direction, error) {
	if err := want(args, 1); err != nil {
		return 0, err
	}
	s := strings.ToUpper(util.TrimQuotes(args[0]))
	for _, d := range board.Directions {
		if d.String() == s {
			return d, nil
		}
	}
	if d, ok := directionNames[s]; ok {
		return d, nil
	}
	n, err := parseIntFromFloat(s)
	if err != nil {
		return 0, badArgs("direction %q", args[0])
	}
	if n < 0 || n > 9 || !board.Direction(n).Valid() {
		return 0, badArgs("direction %d", n)
	}
	return board.Direction(n), nil
}

// ParseRotateDir reads "left" or "right".
func ParseRotateDir(args []string) (game.Turn, error) {
	if err := want(args, 1); err != nil {
		return 0, err
	}
	switch strings.ToLower(util.TrimQuotes(args[0])) {
	case "left", "l":
		return game.TurnLeft, nil
	case "right", "r":
		return game.TurnRight, nil
	}
	return 0, badArgs("rotation %q", args[0])
}

// ParseSeed reads an optional seed. ok is false when no seed was given.
func ParseSeed(args []string) (seed uint64, ok bool, err error) {
	if len(args) == 0 {
		return 0, false, nil
	}
	if err := want(args, 1); err != nil {
		return 0, false, err
	}
	seed, err = parseUintFromFloat(util.TrimQuotes(args[0]))
	if err != nil {
		return 0, false, badArgs("seed: %v", err)
	}
	return seed, true, nil
}

// ParseLine turns one script line into an event. Blank lines and lines starting
// with '#' yield ok == false.
func ParseLine(line string, now time.Time) (e dispatcher.Event, ok bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return dispatcher.Event{}, false, nil
	}
	fields := util.SplitFields(line)
	if len(fields) == 0 {
		return dispatcher.Event{}, false, nil
	}
	cmd := strings.ToUpper(fields[0])
	if len(cmd) < 3 || !strings.HasPrefix(cmd, ":") || !strings.HasSuffix(cmd, ":") {
		return dispatcher.Event{}, false, badArgs("command %q must look like :NAME:", fields[0])
	}
	return dispatcher.Event{
		Command:   cmd,
		Args:      fields[1:],
		Timestamp: now,
	}, true, nil
}
