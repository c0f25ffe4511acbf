package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/kioku/internal/chat"
)

// runChatLoop reads one message per line from in and writes the replies to out
// until EOF, /exit, or ctx is done. A failed turn is reported and the loop
// continues.
func runChatLoop(ctx context.Context, in io.Reader, out io.Writer, svc *chat.Service, session *chat.Session) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/reset":
			session.Reset()
			fmt.Fprintln(out, "(conversation reset)")
			continue
		}

		reply, err := svc.Ask(ctx, session, line)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		if reply.ContextUsed {
			fmt.Fprintln(out, "(using knowledge base context)")
		}
		fmt.Fprintln(out, reply.Content)
	}
}
