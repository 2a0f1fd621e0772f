package main

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/acoshift/neppage/internal/adapters/in/cli"
)

var (
	version string
	commit  string
	date    string
)

func main() {
	if version != "" {
		cli.Version = version
	}
	if commit != "" {
		cli.Commit = commit
	}
	if date != "" {
		cli.BuildDate = date
	}
	cli.Execute()
}
