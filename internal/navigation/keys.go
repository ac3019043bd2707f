package navigation

import (
	"fmt"
	"strings"
)

// Action performs a navigation step. arg carries the text after the key,
// e.g. the sha prefix of a jump.
type Action func(c *Controller, arg string) bool

var registry = make(map[string]Action)

// RegisterKey binds a key name to an action.
func RegisterKey(name string, action Action) {
	registry[name] = action
}

func init() {
	top := func(c *Controller, _ string) bool { return c.Top() }
	bottom := func(c *Controller, _ string) bool { return c.Bottom() }
	down := func(c *Controller, _ string) bool { return c.Step(1) }
	up := func(c *Controller, _ string) bool { return c.Step(-1) }
	jump := func(c *Controller, arg string) bool { return c.JumpToPrefix(arg) }

	for _, k := range []string{"g", "home", "top"} {
		RegisterKey(k, top)
	}
	for _, k := range []string{"G", "end", "bottom"} {
		RegisterKey(k, bottom)
	}
	for _, k := range []string{"j", "down", "next"} {
		RegisterKey(k, down)
	}
	for _, k := range []string{"k", "up", "prev"} {
		RegisterKey(k, up)
	}
	RegisterKey("jump", jump)
}

// ParseKey splits raw input into a key name and its argument.
// "/abc123" is shorthand for "jump abc123".
func ParseKey(input string) (string, string) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ""
	}
	if strings.HasPrefix(input, "/") {
		return "jump", strings.TrimSpace(input[1:])
	}
	parts := strings.Fields(input)
	return parts[0], strings.Join(parts[1:], " ")
}

// Dispatch runs the action bound to input. It reports whether the
// controller moved; an unknown key is an error.
func Dispatch(c *Controller, input string) (bool, error) {
	name, arg := ParseKey(input)
	if name == "" {
		return false, nil
	}
	action, ok := registry[name]
	if !ok {
		return false, fmt.Errorf("'%s' is not a navigation key", name)
	}
	return action(c, arg), nil
}
