package main

import (
	"fmt"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
)

var usageText = heredoc.Doc(`
	notetaker keeps title and description notes for records.

	Usage:
	  notetaker <command> [flags]

	Commands:
	  daemon   run the notes daemon
	  ui       open the notes panel
	  ls       list notes
	  show     print one note
	  add      create a note
	  edit     update a note
	  rm       delete a note after confirmation
	  upload   attach a file to a record
	  files    list attached files; files get|rm <id>
	  config   print configuration
	  version  print the build version
	  help     show help

	Daemon flags:
	  --background    run in background (logs to file)
	  --force         stop any running daemon before starting
	  --kill          stop any running daemon and exit

	Examples:
	  notetaker ls --record acct-42 --since 2024-03-01
	  notetaker add --record acct-42 --title "Call back" --description "Tuesday"
	  notetaker edit --title "Call back Wed"
	  notetaker rm 3f9c2b
	  notetaker upload --record acct-42 ./contract.pdf
	  notetaker files get -o contract.pdf 7d1e04
`)

func printUsage() {
	fmt.Fprint(os.Stderr, usageText)
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		return
	}

	switch args[0] {
	case "-h", "--help", "help":
		printUsage()
		return
	}

	wiring := defaultCommandWiring(os.Stdout, os.Stderr)
	commands := buildCommands(wiring)

	runner, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
	exitOnErr(args[0], runner.Run(args[1:]), wiring.stderr)
}
