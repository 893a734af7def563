// Package `chatcli` implements interactive client of rendezvous chat server.
//
// Server address is read from YAML configuration file with keys
// chatserver.host, chatserver.tcp.port and chatserver.udp.port, flags override them.
//
// Shell commands:
//
//	!login <username> <password>
//	!logout
//	!send <message>
//	!list
//	!lookup <username>
//	!register <host:port>
//	!msg <username> <message>
//	!lastMsg
//	!exit
package main
