package main

import ui "github.com/quicknginx/quicknginx/internal/ui"

func main() {
	// Before anything touches lipgloss or termenv.
	ui.InitTerminal()
	Execute()
}
