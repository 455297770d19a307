package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess     = 0 // At least one descriptor selected, or command succeeded
	ExitNoSelection = 1 // Reduction ran but nothing survived
	ExitError       = 2 // Configuration or runtime error
)

// NoSelectionError indicates that a reduction completed without selecting
// any descriptor file.
type NoSelectionError struct {
	Message string
}

func (e *NoSelectionError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var noSelection *NoSelectionError
		if errors.As(err, &noSelection) {
			os.Exit(ExitNoSelection)
		}

		os.Exit(ExitError)
	}
}
