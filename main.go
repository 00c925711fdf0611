package main

import "github.com/kozaktomas/photo-diary/cmd"

func main() {
	cmd.Execute()
}
