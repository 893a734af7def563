package protocol

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrEmpty - returned by Parse for blank line.
var ErrEmpty = errors.New("protocol: empty line")

// Error - unrecognized or malformed command.
type Error struct {
	Verb    string
	Usage   string
	Unknown bool
}

func (e *Error) Error() string {
	if e.Unknown {
		return fmt.Sprintf("Unknown command %q.", e.Verb)
	}
	return "Malformed command. Usage: " + e.Usage
}

// Syntax - shape of command arguments.
type Syntax struct {
	// Args - exact number of whitespace-separated arguments.
	Args int
	// Text - non-empty free text is required after Args.
	Text bool
	// Usage - human readable form of command.
	Usage string
}

// Grammar - set of known commands by verb.
type Grammar map[string]Syntax

// ServerGrammar - commands accepted by chat server over TCP.
var ServerGrammar = Grammar{
	VerbLogin:    {Args: 2, Usage: "!login <username> <password>"},
	VerbLogout:   {Usage: "!logout"},
	VerbSend:     {Text: true, Usage: "!send <message>"},
	VerbRegister: {Args: 1, Usage: "!register <host:port>"},
	VerbLookup:   {Args: 1, Usage: "!lookup <username>"},
}

// Command - tokenized command line.
type Command struct {
	Verb string
	Args []string
	// Text - trailing free text, for commands with Syntax.Text.
	Text string
}

// Parse - tokenizes line with ServerGrammar.
func Parse(line string) (Command, error) {
	return ServerGrammar.Parse(line)
}

// Parse - splits line on whitespace and validates arity before use.
func (g Grammar) Parse(line string) (Command, error) {
	verb, rest := nextField(line)
	if verb == "" {
		return Command{}, ErrEmpty
	}
	syntax, ok := g[verb]
	if !ok {
		return Command{}, &Error{Verb: verb, Unknown: true}
	}
	malformed := &Error{Verb: verb, Usage: syntax.Usage}

	cmd := Command{Verb: verb}
	if syntax.Args > 0 {
		cmd.Args = make([]string, 0, syntax.Args)
	}
	for i := 0; i < syntax.Args; i++ {
		var arg string
		arg, rest = nextField(rest)
		if arg == "" {
			return Command{}, malformed
		}
		cmd.Args = append(cmd.Args, arg)
	}
	rest = strings.TrimSpace(rest)
	switch {
	case syntax.Text && rest == "":
		return Command{}, malformed
	case !syntax.Text && rest != "":
		return Command{}, malformed
	}
	cmd.Text = rest
	return cmd, nil
}

// nextField - cuts leading whitespace-separated token from s.
func nextField(s string) (field, rest string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}
