package main

import "mellivora/cmd"

func main() {
	cmd.Execute()
}
