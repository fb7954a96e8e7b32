// Package main is the entry point for the hubstaff CLI.
package main

import "github.com/hubstaff-go/hubstaff/internal/cli"

func main() {
	cli.Execute()
}
