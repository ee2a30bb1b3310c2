package main

import "github.com/KaramelBytes/samarth-cli/cmd"

func main() {
	cmd.Execute()
}
