package main

import "github.com/vibast-solutions/ms-go-email-dispatcher/cmd"

func main() {
	cmd.Execute()
}
