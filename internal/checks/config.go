package checks

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Aman-CERP/validate/internal/preflight"
)

func baseURL(_ context.Context, env *preflight.Env) ([]preflight.Result, error) {
	cfg, err := loadedConfig(env)
	if err != nil {
		return nil, err
	}

	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return []preflight.Result{preflight.Warn(GroupConfig, "base_url is not set",
			"Set base_url in config.yaml to the address users open in their browser")}, nil
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return []preflight.Result{preflight.Fail(GroupConfig,
			fmt.Sprintf("base_url (%s) is not a valid http(s) URL", raw),
			"Set base_url to e.g. http://netmon.example.com/")}, nil
	}
	if !strings.HasSuffix(u.Path, "/") {
		return []preflight.Result{preflight.Warn(GroupConfig,
			fmt.Sprintf("base_url (%s) should end with a slash", raw),
			fmt.Sprintf("Set base_url to %s/", raw))}, nil
	}
	return []preflight.Result{preflight.OK(GroupConfig, "base_url is set to "+raw)}, nil
}
