package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Profile(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	Favorites(ctx context.Context) error
	Show(ctx context.Context, args []string) error
	Add(ctx context.Context) error
	Edit(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	ToggleFavorite(ctx context.Context, args []string) error
	Download(ctx context.Context, args []string) error
	Export(ctx context.Context, args []string) error
	Exports(ctx context.Context, args []string) error
}

const (
	helpLoggedOut = "Available commands: register, login, exit"
	helpLoggedIn  = "Available commands: (l)ist [search], favs, show, add, edit, delete, fav, download, export, exports, profile, logout, exit"
)

// runREPL starts a simple read–eval–print loop for the gophnotes CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a' with the remaining tokens as
// arguments. The loop exits on scanner EOF, when ctx is done, or when the
// user types "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help                       show available commands
//	  - register                   create an account and log in
//	  - login                      authenticate
//	  - exit | quit                leave the program
//
//	Logged in:
//	  - l | list [search]          list notes, optionally filtered by a search term
//	  - favs                       list favorite notes
//	  - show <id>                  show a single note
//	  - add                        add a note
//	  - edit <id>                  edit a note
//	  - delete <id>                delete a note
//	  - fav <id>                   toggle the favorite flag
//	  - download <id> [md|txt]     save a rendered copy locally
//	  - export <id> [md|txt]       export to object storage and print a link
//	  - exports <id>               list previous exports of a note
//	  - profile [edit]             show or edit the account
//	  - logout                     log out
//
// Errors returned by command handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("gn %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}
			continue

		case "exit", "quit":
			printlnFn("Bye!")
			return

		case "register":
			report(a.Register(ctx))
			continue

		case "login":
			report(a.Login(ctx))
			continue
		}

		if !a.isLoggedIn() {
			if isNoteCommand(cmd) {
				printlnFn("Please log in first (type 'login' or 'register').")
			} else {
				printlnFn("Unknown command:", cmd)
			}
			continue
		}

		switch cmd {
		case "logout":
			report(a.Logout(ctx))
		case "profile":
			report(a.Profile(ctx, args))
		case "l", "list":
			report(a.List(ctx, args))
		case "favs":
			report(a.Favorites(ctx))
		case "show":
			report(a.Show(ctx, args))
		case "add":
			report(a.Add(ctx))
		case "edit":
			report(a.Edit(ctx, args))
		case "delete":
			report(a.Delete(ctx, args))
		case "fav":
			report(a.ToggleFavorite(ctx, args))
		case "download":
			report(a.Download(ctx, args))
		case "export":
			report(a.Export(ctx, args))
		case "exports":
			report(a.Exports(ctx, args))
		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func isNoteCommand(cmd string) bool {
	switch cmd {
	case "logout", "profile", "l", "list", "favs", "show", "add", "edit", "delete",
		"fav", "download", "export", "exports":
		return true
	}
	return false
}

func report(err error) {
	if err != nil {
		printlnFn("Error:", describeError(err))
	}
}
