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
	Subjects(ctx context.Context) error
	Notes(ctx context.Context, args []string) error
	Read(ctx context.Context, args []string) error
	Bookmark(ctx context.Context, args []string) error
	Quizzes(ctx context.Context, args []string) error
	TakeQuiz(ctx context.Context, args []string) error
	Papers(ctx context.Context, args []string) error
	Download(ctx context.Context, args []string) error
	Progress(ctx context.Context) error
	Sessions(ctx context.Context) error
	Achievements(ctx context.Context) error
	Sync(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the StudyHub CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help                 — show available commands
//	  - register             — create an account
//	  - login                — authenticate
//	  - subjects             — list cached subjects
//	  - exit | quit          — leave the program
//
//	Logged in, additionally:
//	  - notes <subject>      — list a subject's notes
//	  - read <note>          — read a note (counts towards progress)
//	  - bookmark <note>      — toggle a note bookmark
//	  - quizzes <subject>    — list a subject's quizzes
//	  - take <quiz>          — take a quiz interactively
//	  - papers <subject>     — list a subject's past papers
//	  - download <paper>     — download a past paper PDF
//	  - progress             — show per-subject progress
//	  - sessions             — list recent study sessions
//	  - achievements         — list badges
//	  - sync                 — synchronize with the server
//	  - logout               — log out
//
// Any errors returned by command handlers are ignored here; handlers should
// log their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("studyhub %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: subjects, notes, read, bookmark, quizzes, take, papers, download, progress, sessions, achievements, sync, logout, exit")
			} else {
				printlnFn("Available commands: register, login, subjects, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "s", "subjects":
			_ = a.Subjects(ctx)

		case "notes":
			_ = a.Notes(ctx, args)

		case "read":
			_ = a.Read(ctx, args)

		case "bookmark":
			_ = a.Bookmark(ctx, args)

		case "quizzes":
			_ = a.Quizzes(ctx, args)

		case "take":
			_ = a.TakeQuiz(ctx, args)

		case "papers":
			_ = a.Papers(ctx, args)

		case "download":
			_ = a.Download(ctx, args)

		case "progress":
			_ = a.Progress(ctx)

		case "sessions":
			_ = a.Sessions(ctx)

		case "achievements":
			_ = a.Achievements(ctx)

		case "sync":
			_ = a.Sync(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
