package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

var errNotInteractive = errors.New("stdin is not a terminal; pass --force to confirm")

// confirmIfInteractive only prompts a terminal. Anything else has to pass --force.
func confirmIfInteractive(in io.Reader, interactive bool, message string) (bool, error) {
	if !interactive {
		return false, errNotInteractive
	}
	return confirm(in, message), nil
}

func confirm(in io.Reader, message string) bool {
	fmt.Printf("🤔 %s (y/N): ", message)
	reader := bufio.NewReader(in)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "yes" || response == "y"
}
