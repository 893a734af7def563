package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wtask/chatrelay/internal/chat/console"
	"github.com/wtask/chatrelay/internal/chat/protocol"
	"github.com/wtask/chatrelay/internal/chat/registry"
)

var shellGrammar = protocol.Grammar{
	"!users": {Usage: "!users"},
	"!exit":  {Usage: "!exit"},
}

// shell - executes operator commands read from in until !exit, end of input or ctx is done.
// Returns when the server has to be stopped.
func shell(ctx context.Context, in io.Reader, out console.Console, reg *registry.Registry) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			cmd, err := shellGrammar.Parse(line)
			perr := &protocol.Error{}
			switch {
			case errors.Is(err, protocol.ErrEmpty):
				continue
			case errors.As(err, &perr):
				out.WriteLine("ERROR: " + perr.Error())
				continue
			}
			switch cmd.Verb {
			case "!users":
				for _, l := range formatUsers(reg.Users()) {
					out.WriteLine(l)
				}
			case "!exit":
				return
			}
		}
	}
}

// formatUsers - numbered account list with presence.
func formatUsers(users []registry.UserStatus) []string {
	width := 0
	for _, u := range users {
		if len(u.Username) > width {
			width = len(u.Username)
		}
	}
	lines := make([]string, 0, len(users))
	for i, u := range users {
		status := "offline"
		if u.Online {
			status = "online"
		}
		lines = append(lines, fmt.Sprintf("%d. %s  %s", i+1, u.Username+strings.Repeat(" ", width-len(u.Username)), status))
	}
	return lines
}
