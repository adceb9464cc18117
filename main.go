package main

import (
	"taulu.fi/dataset-curator/cmd"
)

func main() {
	cmd.Execute()
}
