package main

import "github.com/jumanzarismoilov-jpg/botim/cmd"

func main() {
	cmd.Execute()
}
