package main

import (
	"fmt"
	"io"
	"os"
)

var stdout io.Writer = os.Stdout

var commands = map[string]func([]string) error{
	"take": runTake,
	"sync": runSync,
	"list": runList,
	"load": runLoad,
}

func usage() {
	fmt.Fprint(os.Stderr, `surveyctl - survey respondent client

Usage:
  surveyctl <command> [options]

Commands:
  take   Run a respondent through a survey from a YAML answer script
  sync   Upload finished offline sessions to the survey service
  list   List sessions held in local storage
  load   Load or replace a survey definition from a JSON or YAML file

Run 'surveyctl <command> -h' for command-specific help.
`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	if cmd == "-h" || cmd == "--help" || cmd == "help" {
		usage()
		os.Exit(0)
	}

	fn, ok := commands[cmd]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}

	if err := fn(os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
