// Command llmchat is a terminal chat client for OpenAI and Anthropic models.
package main

import "github.com/diogo/llmchat/internal/commands"

func main() {
	commands.Execute()
}
