package bot

import (
	"context"
	"fmt"
	"strings"

	"TickerBot/internal/model"
	"TickerBot/internal/notifier"
)

// Handler runs one command with bound arguments.
type Handler func(ctx context.Context, args Args) (model.Reply, error)

// Option is one argument of a command, in positional order.
type Option struct {
	Name        string
	Description string
	Required    bool
}

// Command is a slash command definition.
type Command struct {
	Name        string
	Description string
	Options     []Option
	// Defer acknowledges as soon as the command starts instead of waiting for the ack deadline.
	Defer bool
	// Redact keeps arguments out of logs and the journal and deletes the user's message.
	Redact  bool
	Handler Handler
}

// Usage renders "/name <required> [optional]".
func (c *Command) Usage() string {
	var b strings.Builder
	b.WriteString("/" + c.Name)
	for _, o := range c.Options {
		if o.Required {
			fmt.Fprintf(&b, " <%s>", o.Name)
		} else {
			fmt.Fprintf(&b, " [%s]", o.Name)
		}
	}
	return b.String()
}

// Registry holds commands in registration order.
type Registry struct {
	commands map[string]*Command
	order    []string
}

func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]*Command)}
}

// Register adds cmd; names are unique and lowercase.
func (r *Registry) Register(cmd *Command) error {
	name := strings.ToLower(cmd.Name)
	if name == "" || cmd.Handler == nil {
		return fmt.Errorf("command %q needs a name and a handler", cmd.Name)
	}
	if _, dup := r.commands[name]; dup {
		return fmt.Errorf("command %q registered twice", name)
	}
	cmd.Name = name
	r.commands[name] = cmd
	r.order = append(r.order, name)
	return nil
}

// Lookup finds a command by name.
func (r *Registry) Lookup(name string) (*Command, bool) {
	cmd, ok := r.commands[strings.ToLower(name)]
	return cmd, ok
}

// Commands returns all commands in registration order.
func (r *Registry) Commands() []*Command {
	out := make([]*Command, len(r.order))
	for i, name := range r.order {
		out[i] = r.commands[name]
	}
	return out
}

// BotCommands is the slash-command menu for the chat platform.
func (r *Registry) BotCommands() []notifier.BotCommand {
	out := make([]notifier.BotCommand, 0, len(r.order))
	for _, cmd := range r.Commands() {
		out = append(out, notifier.BotCommand{Command: cmd.Name, Description: cmd.Description})
	}
	return out
}

// Help returns usage lines for every command.
func (r *Registry) Help() []notifier.HelpEntry {
	out := make([]notifier.HelpEntry, 0, len(r.order))
	for _, cmd := range r.Commands() {
		out = append(out, notifier.HelpEntry{Usage: cmd.Usage(), Description: cmd.Description})
	}
	return out
}
