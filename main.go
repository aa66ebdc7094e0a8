package main

import "flyingbus/cmd"

func main() {
	cmd.Execute()
}
