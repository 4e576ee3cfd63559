// Command readalong is a reading companion that turns a story passage into
// questions for a young reader.
package main

import "github.com/diogo/readalong/internal/commands"

func main() {
	commands.Execute()
}
