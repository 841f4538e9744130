//go:build !windows

package doctor

import "os/exec"

// resetTerminal restores cooked mode after a raw-mode prompt.
func resetTerminal() {
	exec.Command("stty", "sane").Run()
}
