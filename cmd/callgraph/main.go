package main

import "github.com/mvp-joe/project-callgraph/internal/cli"

func main() {
	cli.Execute()
}
