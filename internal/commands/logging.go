package commands

import (
	"strings"

	"github.com/goliatone/go-pageblocks/internal/logging"
	"github.com/goliatone/go-pageblocks/pkg/interfaces"
)

// CommandLogger returns a logger for the command handlers of module, tagged
// with the component and module fields.
func CommandLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	name := strings.TrimSpace(module)
	if name == "" {
		name = "core"
	}
	logger := logging.CommandsLogger(provider, name)
	return logging.WithFields(logger, map[string]any{
		"component":      "command",
		"command_module": name,
	})
}
