// Package main is the entry point for the luatgf CLI tool.
package main

import (
	"github.com/luatgf/luatgf/internal/cmd"
)

func main() {
	cmd.Execute()
}
