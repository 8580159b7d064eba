package main

import "github.com/mouhcinecherqui/devtech-sub000/cmd"

func main() {
	cmd.Execute()
}
