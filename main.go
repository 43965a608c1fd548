// Package main is the entry point for the topstats CLI tool, which turns a
// batch of Elite Insights encounter reports into per-player award boards.
package main

import "github.com/pable/go-topstats/cmd"

func main() {
	cmd.Execute()
}
