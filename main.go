package main

import "buildenv/cmd"

func main() {
	cmd.Execute()
}
