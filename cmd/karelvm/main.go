// cmd/karelvm/main.go
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/mattn/go-isatty"
)

const version = "0.1.0"

// commandAliases mirrors the short-form aliases a hand-rolled CLI
// dispatcher offers instead of pulling in a flag/command framework.
var commandAliases = map[string]string{
	"r": "run",
	"h": "history",
	"w": "watch",
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		os.Exit(1)
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	switch cmd {
	case "--help", "-h", "help":
		showUsage()
	case "--version", "-v", "version":
		fmt.Println("karelvm", version)
	case "run":
		if err := runCommand(args[1:]); err != nil {
			log.Fatalf("run: %v", err)
		}
	case "history":
		if err := historyCommand(args[1:]); err != nil {
			log.Fatalf("history: %v", err)
		}
	case "watch":
		if err := watchCommand(args[1:]); err != nil {
			log.Fatalf("watch: %v", err)
		}
	default:
		fmt.Fprintf(os.Stderr, "karelvm: unknown command %q\n", cmd)
		showUsage()
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println(`karelvm - a small host around the Karel bytecode VM

Usage:
  karelvm run <image.kvm> <world.json> <symbol>
  karelvm history <driver> <dsn> <vm-id>
  karelvm watch <image.kvm> <world.json> <symbol> --ws :8089

Commands:
  run       Compile-free: load a precompiled bytecode image, a world, and
            run one symbol to completion.
  history   Query the run_history audit trail for a VM id.
  watch     Like run, but also serves a websocket tap of status
            transitions while the run executes.`)
}

// colorize wraps s in an ANSI color code, but only when stdout is an
// actual terminal — a host piped into a file or another process gets
// plain text.
func colorize(code, s string) string {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return s
	}
	return "\x1b[" + code + "m" + s + "\x1b[0m"
}

func statusColor(status string) string {
	switch status {
	case "SUCCESS":
		return colorize("32", status)
	case "IN_PROGRESS":
		return colorize("33", status)
	default:
		return colorize("31", status)
	}
}
