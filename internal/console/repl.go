package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. *Console
// satisfies it; tests use a recording stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context, args []string) error
	Publish(ctx context.Context, args []string) error
	Like(ctx context.Context, args []string) error
	Dislike(ctx context.Context, args []string) error
	Comment(ctx context.Context, args []string) error
	View(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	Channel(ctx context.Context, args []string) error
}

// runREPL reads commands from reader until EOF, "exit" or "quit".
//
//	Always:
//	  - help               show available commands
//	  - show <video>       watch page: urls, likes, comments
//	  - list [category]    newest videos
//	  - channel [owner]    channel profile and its videos
//	  - view <video>       record a view
//	  - login | as <user>  pick the acting user
//	  - exit | quit
//
//	Logged in:
//	  - publish            upload a video and a thumbnail
//	  - like <video>       toggle the like
//	  - dislike <video>    toggle the local dislike
//	  - comment <video>    add a comment
//	  - channel set        edit your channel profile
//	  - logout
//
// Handler errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("golive %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: publish, like, dislike, comment, view, show, (l)ist, channel, logout, exit")
			} else {
				printlnFn("Available commands: login, as, view, show, (l)ist, channel, exit")
			}

		case "login", "as":
			cmdErr = a.Login(ctx, append([]string{cmd}, args...))

		case "logout":
			cmdErr = a.Logout(ctx, args)

		case "publish":
			cmdErr = a.Publish(ctx, args)

		case "like":
			cmdErr = a.Like(ctx, args)

		case "dislike":
			cmdErr = a.Dislike(ctx, args)

		case "comment":
			cmdErr = a.Comment(ctx, args)

		case "view":
			cmdErr = a.View(ctx, args)

		case "show":
			cmdErr = a.Show(ctx, args)

		case "l", "list":
			cmdErr = a.List(ctx, args)

		case "channel":
			cmdErr = a.Channel(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
		if errors.Is(err, io.EOF) {
			return
		}
	}
}
