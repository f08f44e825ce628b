// Package main is the entry point for casectl.
package main

import "github.com/vyrodovalexey/casedesk/internal/cli"

func main() {
	cli.Execute()
}
