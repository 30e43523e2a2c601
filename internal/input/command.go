package input

import "strings"

// Command is a parsed "/command arg..." line
type Command struct {
	Name string
	Args []string
}

// ParseCommand parses a slash command. Leading whitespace is allowed;
// arguments are split on runs of whitespace. It reports false for input
// that is not a command, including a bare "/".
func ParseCommand(line string) (Command, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return Command{}, false
	}
	name := strings.TrimPrefix(fields[0], "/")
	if name == "" {
		return Command{}, false
	}
	return Command{Name: name, Args: fields[1:]}, true
}

// String formats the command as it would be typed
func (c Command) String() string {
	if len(c.Args) == 0 {
		return "/" + c.Name
	}
	return "/" + c.Name + " " + strings.Join(c.Args, " ")
}
