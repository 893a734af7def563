// Package protocol describes line-based wire format shared by chat server, client and peers.
//
// Every command and reply is a single line terminated with '\n'.
// Command verbs are prefixed with '!', arguments are separated by whitespace.
package protocol

import (
	"fmt"
	"strings"
)

// Command verbs.
const (
	VerbLogin    = "!login"
	VerbLogout   = "!logout"
	VerbSend     = "!send"
	VerbRegister = "!register"
	VerbLookup   = "!lookup"
	VerbList     = "!list"
)

// Line prefixes.
const (
	CommandPrefix      = "!"
	NoticePrefix       = "!sm "
	LookupResultPrefix = "!lookup-result "
	PrivatePrefix      = "[PM]"
)

// Fixed reply literals.
const (
	// Ack - acknowledgment token of direct peer message.
	Ack = "!ack"

	LoginSucceeded      = "Successfully logged in."
	LoginBadCredentials = "Wrong username or password."
	NotLoggedIn         = "Not logged in. Please log in before using commands other than !list."
	ServerBusy          = "Server is busy. Please try again later."

	NoUsersOnline     = "No users online."
	UnknownUDPCommand = "Unknown UDP command."
)

// LoginAlreadyOnline - reply for login of user owning live session.
func LoginAlreadyOnline(username string) string {
	return fmt.Sprintf("Login failed. User %q already logged in.", username)
}

// Notice - formats server notice line.
func Notice(text string) string {
	return NoticePrefix + text
}

// ErrorNotice - formats server notice about failed command.
func ErrorNotice(err error) string {
	return Notice("Error: " + err.Error())
}

// RegisterSucceeded - notice for accepted address registration.
func RegisterSucceeded(username string) string {
	return Notice("Successfully registered address for " + username)
}

// RegisterFailed - notice for rejected address registration.
func RegisterFailed() string {
	return Notice("Error: Could not register the given address.")
}

// LookupResult - reply line carrying resolved peer address.
func LookupResult(username, address string) string {
	return LookupResultPrefix + username + " " + address
}

// LookupNotFound - notice for unknown peer.
func LookupNotFound(username string) string {
	return Notice(fmt.Sprintf("[%s] not found. Wrong username or user not reachable.", username))
}

// ChatMessage - broadcast line as recipients receive it.
func ChatMessage(author, text string) string {
	return author + ": " + text
}

// PrivateMessage - line sent directly to peer.
func PrivateMessage(sender, text string) string {
	return PrivatePrefix + sender + ": " + text
}

// ListReply - body of UDP presence reply for sorted usernames.
func ListReply(online []string) string {
	if len(online) == 0 {
		return NoUsersOnline
	}
	return strings.Join(online, "\n")
}

// Kind - class of line received by client from server.
type Kind int

const (
	_ Kind = iota
	// KindChat - broadcast chat message.
	KindChat
	// KindNotice - server notice, payload has prefix stripped.
	KindNotice
	// KindLookupResult - asynchronous lookup reply.
	KindLookupResult
	// KindUnknown - any other line starting with CommandPrefix.
	KindUnknown
)

// Classify - detects kind of server line and returns its payload.
func Classify(line string) (Kind, string) {
	switch {
	case strings.HasPrefix(line, NoticePrefix):
		return KindNotice, strings.TrimPrefix(line, NoticePrefix)
	case strings.HasPrefix(line, LookupResultPrefix):
		return KindLookupResult, strings.TrimPrefix(line, LookupResultPrefix)
	case strings.HasPrefix(line, CommandPrefix):
		return KindUnknown, line
	default:
		return KindChat, line
	}
}

// ParseLookupResult - extracts username and address from lookup reply payload (prefix stripped).
func ParseLookupResult(payload string) (username, address string, ok bool) {
	fields := strings.Fields(payload)
	if len(fields) != 2 {
		return "", "", false
	}
	return fields[0], fields[1], true
}
