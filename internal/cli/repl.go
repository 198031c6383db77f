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
	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context, args []string) error
	Upload(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	Tasks(ctx context.Context, args []string) error
	Trash(ctx context.Context, args []string) error
	Restore(ctx context.Context, args []string) error
	Remove(ctx context.Context, args []string) error
	EmptyTrash(ctx context.Context, args []string) error
	Share(ctx context.Context, args []string) error
	Rename(ctx context.Context, args []string) error
	URL(ctx context.Context, args []string) error
	Sync(ctx context.Context, args []string) error
	Usage(ctx context.Context, args []string) error
}

const (
	helpLoggedOut = "Available commands: login, help, exit"
	helpLoggedIn  = "Available commands: upload <path>..., ls [view] [search], tasks, trash <id>, restore <id>, " +
		"rm <id>, empty-trash, share <id>, rename <id> <name>, url <id>, sync, usage, logout, exit"
)

// runREPL reads a line from the scanner, parses the first token as the
// command and dispatches to methods on a. The loop exits on scanner EOF or
// when the user types "exit" or "quit".
//
// Views accepted by ls: all, shared, recent, trash, images, documents,
// videos, others. Ids may be shortened to any unique prefix.
//
// Errors returned by command handlers are ignored here; handlers report
// their own failures.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("sky %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if !a.isLoggedIn() {
			switch cmd {
			case "help":
				printlnFn(helpLoggedOut)
			case "login":
				_ = a.Login(ctx, args)
			case "exit", "quit":
				printlnFn("Bye!")
				return
			default:
				printlnFn("Please log in first (type 'login')")
			}
			continue
		}

		switch cmd {
		case "help":
			printlnFn(helpLoggedIn)
		case "login":
			_ = a.Login(ctx, args)
		case "logout":
			_ = a.Logout(ctx, args)
		case "upload", "up":
			_ = a.Upload(ctx, args)
		case "ls", "list":
			_ = a.List(ctx, args)
		case "tasks":
			_ = a.Tasks(ctx, args)
		case "trash":
			_ = a.Trash(ctx, args)
		case "restore":
			_ = a.Restore(ctx, args)
		case "rm":
			_ = a.Remove(ctx, args)
		case "empty-trash":
			_ = a.EmptyTrash(ctx, args)
		case "share":
			_ = a.Share(ctx, args)
		case "rename":
			_ = a.Rename(ctx, args)
		case "url":
			_ = a.URL(ctx, args)
		case "sync":
			_ = a.Sync(ctx, args)
		case "usage":
			_ = a.Usage(ctx, args)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
