package main

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// build info - set at build time via ldflags
var (
	Version   string = "0.1.0"
	BuildDate string = "unknown"

	AppName string = "tortuga"
)

const usage = `usage:
  tortuga play   [-config dir] [-seed n] [script]
  tortuga replay [-config dir] <export.json[.gz]>
  tortuga replay [-config dir] -db <file.db> [-game id]
  tortuga replay [-config dir] -postgres [-game id]
  tortuga version
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var err error
	switch strings.ToLower(args[0]) {
	case "play":
		err = playCmd(args[1:], stdin, stdout, stderr)
	case "replay":
		err = replayCmd(args[1:], stdout, stderr)
	case "version":
		fmt.Fprintf(stdout, "%s %s (built %s)\n", AppName, Version, BuildDate)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n%s", args[0], usage)
		return 2
	}

	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}
