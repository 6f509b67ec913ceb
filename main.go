package main

import "inventory-connector/cmd"

func main() {
	cmd.Execute()
}
