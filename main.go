package main

import "github.com/jfmyers9/spotify-backup/cmd"

func main() {
	cmd.Execute()
}
