// Package main is the entry point for the iostest CLI.
package main

import "iostest.dev/pkg/iostest/cmd"

func main() {
	cmd.Execute()
}
