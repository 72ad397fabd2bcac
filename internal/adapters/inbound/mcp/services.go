package mcp

import (
	"fmt"

	"github.com/lenra-io/lenra-cli/internal/adapters/outbound/appclient"
	"github.com/lenra-io/lenra-cli/internal/adapters/outbound/config"
	"github.com/lenra-io/lenra-cli/internal/adapters/outbound/gitinfo"
	"github.com/lenra-io/lenra-cli/internal/adapters/outbound/query"
	"github.com/lenra-io/lenra-cli/internal/adapters/outbound/schema"
	"github.com/lenra-io/lenra-cli/internal/application"
	"github.com/lenra-io/lenra-cli/internal/domain"
)

// newServices loads the project configuration and wires a check service for
// its app. A non-empty url overrides the configured app URL.
func newServices(projectPath, url string) (*application.CheckService, domain.CheckConfig, error) {
	cfg, err := config.New().Load(projectPath)
	if err != nil {
		return nil, domain.CheckConfig{}, err
	}
	if url != "" {
		cfg.AppURL = url
	}

	validator, err := schema.New()
	if err != nil {
		return nil, cfg, fmt.Errorf("loading result schemas: %w", err)
	}
	svc := application.NewCheckService(
		appclient.New(appclient.WithURL(cfg.AppURL)),
		validator,
		query.NewCompiler(),
		application.WithGitInfo(gitinfo.New()),
		application.WithMemo(func(next domain.AppCaller) (domain.AppCaller, error) {
			return appclient.NewMemo(next, appclient.DefaultMemoSize)
		}),
	)
	return svc, cfg, nil
}
