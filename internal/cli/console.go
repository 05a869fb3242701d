package cli

import (
	"fmt"
	"io"
)

// console reports session toasts and navigation on the terminal.
type console struct {
	out    io.Writer
	errOut io.Writer
	opened string
}

func (c *console) Success(msg string) { fmt.Fprintln(c.out, msg) }
func (c *console) Warning(msg string) { fmt.Fprintln(c.errOut, "warning:", msg) }
func (c *console) Error(msg string)   { fmt.Fprintln(c.errOut, "error:", msg) }

func (c *console) ReplaceChatURL(urlID string) { c.opened = urlID }

func (c *console) OpenChat(urlID string) {
	c.opened = urlID
	fmt.Fprintf(c.out, "Opened /chat/%s\n", urlID)
}

func (c *console) GoHome() {}
