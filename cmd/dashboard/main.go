package main

import "github.com/startupverse/dashboard/cmd/dashboard/cmd"

func main() {
	cmd.Execute()
}
