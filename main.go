package main

import "github.com/RyanBlaney/bode-analyzer/cmd"

func main() {
	cmd.Execute()
}
