package main

import "github.com/safepush/safepush/cmd/safepush"

func main() { safepush.Execute() }
