package checks

import (
	"context"
	"fmt"

	"github.com/Aman-CERP/validate/internal/config"
	verrors "github.com/Aman-CERP/validate/internal/errors"
	"github.com/Aman-CERP/validate/internal/preflight"
	"github.com/Aman-CERP/validate/internal/probe"
)

type program struct {
	tool probe.Tool
	// required programs fail when missing; the rest only warn.
	required bool
}

func configuredPrograms(p config.ProgramsConfig) []program {
	return []program{
		{tool: probe.RRDTool.WithCommand(p.RRDTool), required: true},
		{tool: probe.SNMPGet.WithCommand(p.SNMPGet), required: true},
		{tool: probe.SNMPWalk.WithCommand(p.SNMPWalk), required: true},
		{tool: probe.FPing.WithCommand(p.FPing), required: true},
		{tool: probe.Git.WithCommand(p.Git)},
	}
}

func programs(ctx context.Context, env *preflight.Env) ([]preflight.Result, error) {
	cfg, err := loadedConfig(env)
	if err != nil {
		return nil, err
	}
	prober := tools(env)

	var results []preflight.Result
	for _, p := range configuredPrograms(cfg.Programs) {
		info := prober.Probe(ctx, p.tool)
		switch {
		case !info.Found() || info.Err != nil:
			msg := fmt.Sprintf("%s is not available", p.tool.Command)
			fix := ""
			if info.Err != nil {
				msg = errorText(info.Err)
				fix = verrors.GetSuggestion(info.Err)
			}
			if p.required {
				results = append(results, preflight.Fail(GroupPrograms, msg, fix))
			} else {
				results = append(results, preflight.Warn(GroupPrograms, msg, fix))
			}
		case info.Version == "":
			results = append(results, preflight.Warn(GroupPrograms,
				fmt.Sprintf("Could not determine the version of %s", info.Path), ""))
		default:
			results = append(results, preflight.OK(GroupPrograms,
				fmt.Sprintf("%s %s found at %s", p.tool.Name, info.Version, info.Path)))
		}
	}
	return results, nil
}
