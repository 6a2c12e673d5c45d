package core

import "errors"

var ErrUnknownCommand = errors.New("console: unknown command")

// Command is a single-byte console command
type Command struct {
	Flag        byte
	Run         func(*Console)
	Description string
}

// Console serves read-only diagnostics over a byte stream. It never
// changes the drive: operator control stays on the buttons.
type Console struct {
	ctrl     *Controller
	out      DebugWriter
	commands []*Command
}

var (
	StatusCommand = &Command{
		Flag: 'D',
		Run: func(c *Console) {
			for _, line := range c.ctrl.StatusLines() {
				c.out(line)
			}
		},
		Description: "Dump controller status.",
	}
	EventsCommand = &Command{
		Flag:        'E',
		Run:         func(c *Console) { DumpEvents(c.out) },
		Description: "Dump the event ring, oldest first.",
	}
	ClearEventsCommand = &Command{
		Flag: 'C',
		Run: func(c *Console) {
			ClearEvents()
			c.out("events cleared")
		},
		Description: "Clear the event ring.",
	}
	VerboseCommand = &Command{
		Flag: 'V',
		Run: func(c *Console) {
			SetDebugEnabled(!IsDebugEnabled())
			if IsDebugEnabled() {
				c.out("verbose on")
			} else {
				c.out("verbose off")
			}
		},
		Description: "Toggle asynchronous debug messages.",
	}
	HelpCommand = &Command{
		Flag: 'H',
		Run: func(c *Console) {
			for _, cmd := range c.commands {
				c.out(string(cmd.Flag) + ": " + cmd.Description)
			}
		},
		Description: "Show this help.",
	}
)

// NewConsole creates a console for ctrl writing lines to out
func NewConsole(ctrl *Controller, out DebugWriter) *Console {
	return &Console{
		ctrl:     ctrl,
		out:      out,
		commands: []*Command{StatusCommand, EventsCommand, ClearEventsCommand, VerboseCommand, HelpCommand},
	}
}

// HandleByte runs the command for b. Whitespace is ignored.
func (c *Console) HandleByte(b byte) error {
	switch b {
	case ' ', '\r', '\n', '\t':
		return nil
	}
	if b >= 'a' && b <= 'z' {
		b -= 'a' - 'A'
	}
	for _, cmd := range c.commands {
		if cmd.Flag == b {
			cmd.Run(c)
			return nil
		}
	}
	c.out("unknown command " + string(b) + ", H for help")
	return ErrUnknownCommand
}
