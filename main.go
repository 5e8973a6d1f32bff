package main

import "bookflow-backend/cmd"

func main() {
	cmd.Run()
}
