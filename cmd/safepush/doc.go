// Package safepush provides the command-line interface for the SafePush
// tool. It configures subcommands (scan, baseline, review, etc.), parses
// flags, and executes the selected command.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/safepush/safepush/cmd/safepush"
//	func main() { safepush.Execute() }
package safepush
