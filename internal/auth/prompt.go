package auth

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aymanbagabas/go-osc52/v2"

	"github.com/marcin-skalski/actions-status/internal/browser"
)

// TerminalPrompter asks on a terminal. The code is copied to the
// clipboard with an OSC 52 escape, which most terminal emulators honour
// even over SSH.
type TerminalPrompter struct {
	In      io.Reader
	Out     io.Writer
	Browser browser.Opener
	// Clipboard enables the OSC 52 copy; leave it off when Out is not a
	// terminal.
	Clipboard bool
}

func (p TerminalPrompter) Prompt(ctx context.Context, userCode, verificationURI string) (bool, error) {
	fmt.Fprintf(p.Out, "GitHub Actions Status - Authentication\n\n")
	fmt.Fprintf(p.Out, "Device activation - please enter code %s at %s\n", userCode, verificationURI)
	if p.Clipboard {
		if _, err := osc52.New(userCode).WriteTo(p.Out); err == nil {
			fmt.Fprintf(p.Out, "(code copied to clipboard)\n")
		}
	}
	fmt.Fprintf(p.Out, "Press Enter to open the browser, or n to cancel: ")

	answer := make(chan string, 1)
	failed := make(chan error, 1)
	go func() {
		line, err := bufio.NewReader(p.In).ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			failed <- err
			return
		}
		answer <- strings.ToLower(strings.TrimSpace(line))
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case err := <-failed:
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	case a := <-answer:
		if a == "n" || a == "no" {
			return false, nil
		}
	}

	if p.Browser != nil {
		if err := p.Browser.Open(ctx, verificationURI); err != nil {
			fmt.Fprintf(p.Out, "Could not open a browser (%v); visit %s manually.\n", err, verificationURI)
		}
	}
	fmt.Fprintf(p.Out, "Waiting for authorization...\n")
	return true, nil
}
