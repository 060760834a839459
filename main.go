package main

import "github.com/neurowave/eeg-recorder/cmd"

func main() {
	cmd.Execute()
}
