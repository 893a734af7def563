// Package `chatsrv` implements rendezvous chat server: TCP chat sessions and UDP presence queries.
//
// To compile chat server locally, run from package directory:
//
//	go install .
//
// Accounts are read from YAML configuration file, passwords are stored as bcrypt hashes:
//
//	tcp:
//	  port: 6000
//	udp:
//	  port: 6001
//	users:
//	  bob:
//	    password: $2a$10$...
//
// Hash for new account is printed with:
//
//	chatsrv -hash-password <password>
//
// Operator shell commands, read from standard input:
//
//	!users - list all accounts with their online status
//	!exit  - stop the server
package main
