package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/wtask/chatrelay/internal/chat/client"
	"github.com/wtask/chatrelay/internal/chat/console"
	"github.com/wtask/chatrelay/internal/chat/protocol"
)

var shellGrammar = protocol.Grammar{
	"!login":    {Args: 2, Usage: "!login <username> <password>"},
	"!logout":   {Usage: "!logout"},
	"!send":     {Text: true, Usage: "!send <message>"},
	"!list":     {Usage: "!list"},
	"!lookup":   {Args: 1, Usage: "!lookup <username>"},
	"!register": {Args: 1, Usage: "!register <host:port>"},
	"!msg":      {Args: 1, Text: true, Usage: "!msg <username> <message>"},
	"!lastMsg":  {Usage: "!lastMsg"},
	"!exit":     {Usage: "!exit"},
}

// shell - runs typed commands against client until !exit, end of input or ctx is done.
func shell(ctx context.Context, prompt string, in io.Reader, out *console.Terminal, c *client.Client) {
	scanner := bufio.NewScanner(in)
	for {
		out.Prompt(prompt)
		if !scanner.Scan() || ctx.Err() != nil {
			return
		}
		cmd, err := shellGrammar.Parse(scanner.Text())
		perr := &protocol.Error{}
		switch {
		case errors.Is(err, protocol.ErrEmpty):
			continue
		case errors.As(err, &perr):
			out.Errorf("%s", perr.Error())
			continue
		}
		if cmd.Verb == "!exit" {
			return
		}
		result, err := execute(ctx, c, cmd)
		loginErr := &client.LoginError{}
		switch {
		case errors.As(err, &loginErr):
			out.WriteLine(loginErr.Reply)
		case errors.Is(err, client.ErrNotFound):
			// not found notice comes from server
		case err != nil:
			out.Errorf("%v", err)
		case result != "":
			out.WriteLine(result)
		}
	}
}

func execute(ctx context.Context, c *client.Client, cmd protocol.Command) (string, error) {
	switch cmd.Verb {
	case "!login":
		return c.Login(ctx, cmd.Args[0], cmd.Args[1])
	case "!logout":
		return c.Logout()
	case "!send":
		return "", c.Send(cmd.Text)
	case "!list":
		return c.List(ctx)
	case "!lookup":
		return c.Lookup(ctx, cmd.Args[0])
	case "!register":
		return "", c.Register(cmd.Args[0])
	case "!msg":
		return c.Msg(ctx, cmd.Args[0], cmd.Text)
	case "!lastMsg":
		return c.LastMsg(), nil
	}
	return "", fmt.Errorf("Unknown command %q.", cmd.Verb)
}
