// Package input parses the TUI prompt line.
package input

import "strings"

// PromptCommand describes a command suggestion entry.
type PromptCommand struct {
	Name        string
	Description string
}

// Prompt commands understood by the TUI.
const (
	CmdAsk   = "/ask"
	CmdClass = "/class"
	CmdWeek  = "/week"
	CmdCopy  = "/copy"
	CmdClear = "/clear"
	CmdRoom  = "/room"
)

// Commands lists the prompt commands in suggestion order.
var Commands = []PromptCommand{
	{Name: CmdAsk, Description: "Rewrite the week from an instruction"},
	{Name: CmdClass, Description: "Put a class in the selected slot: subject [@room]"},
	{Name: CmdWeek, Description: "Jump to a week: this, next, +2, 2025-03-10"},
	{Name: CmdCopy, Description: "Copy this week onto another week"},
	{Name: CmdClear, Description: "Remove every entry of this week"},
	{Name: CmdRoom, Description: "Switch classroom"},
}

// PromptMatchingCommands returns commands that match the current input prefix.
func PromptMatchingCommands(input string, commands []PromptCommand) []PromptCommand {
	if !strings.HasPrefix(strings.TrimSpace(input), "/") {
		return nil
	}
	if strings.Contains(input, " ") {
		return nil
	}

	prefix := strings.ToLower(strings.TrimSpace(input))
	matches := make([]PromptCommand, 0, len(commands))
	for _, cmd := range commands {
		if strings.HasPrefix(strings.ToLower(cmd.Name), prefix) {
			matches = append(matches, cmd)
		}
	}
	return matches
}

// PromptAutocomplete returns the first matching command and whether it exists.
func PromptAutocomplete(input string, commands []PromptCommand) (string, bool) {
	matches := PromptMatchingCommands(input, commands)
	if len(matches) == 0 {
		return "", false
	}
	return matches[0].Name + " ", true
}

// ParsePrompt splits submitted prompt text into a command and its argument.
// Text without a leading slash is an instruction for /ask.
func ParsePrompt(s string) (cmd, arg string) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "/") {
		return CmdAsk, s
	}
	name, rest, _ := strings.Cut(s, " ")
	return strings.ToLower(name), strings.TrimSpace(rest)
}

// ParseClass splits "/class" arguments into subject and room. A trailing
// word starting with @ names the room.
func ParseClass(arg string) (subject, room string) {
	fields := strings.Fields(arg)
	if n := len(fields); n > 1 && strings.HasPrefix(fields[n-1], "@") {
		room = strings.TrimPrefix(fields[n-1], "@")
		fields = fields[:n-1]
	}
	return strings.Join(fields, " "), room
}
