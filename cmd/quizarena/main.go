package main

import (
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/cli"
)

func main() {
	cli.Execute()
}
