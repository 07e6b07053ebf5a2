package installer

import (
	"context"
	"fmt"
	"strings"

	"github.com/eastgold15/Monolith/internal/output"
	"github.com/eastgold15/Monolith/internal/registry"
)

// runHooks executes a module's afterInstall actions once, in order, in
// the first install target's directory. A failing command becomes a
// warning and never stops the hooks after it.
func (inst *Installer) runHooks(ctx context.Context, mod *registry.Descriptor, dir string, res *Result) {
	for _, hook := range mod.Hooks.AfterInstall {
		switch hook.Type {
		case registry.HookLog:
			if hook.Message != "" {
				output.Info(hook.Message)
			}

		case registry.HookEnv:
			if len(hook.Vars) == 0 {
				continue
			}
			output.Info(fmt.Sprintf("Module %s needs these variables configured:", mod.Name))
			for _, v := range hook.Vars {
				output.Step(v)
			}

		case registry.HookCommand:
			if hook.Command == "" {
				continue
			}
			argv := strings.Fields(hook.Command)
			output.Verbose("Running hook: " + hook.Command)
			if err := inst.runCommand(ctx, dir, argv); err != nil {
				herr := &HookError{Module: mod.Name, Command: hook.Command, Err: err}
				res.warnf("%v", herr)
			}
		}
	}
}
