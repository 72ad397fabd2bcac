package cli

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

// loadConfig reads the project configuration. A non-empty url overrides the
// configured app URL.
func loadConfig(projectPath, url string) (domain.CheckConfig, error) {
	cfg, err := config.New().Load(projectPath)
	if err != nil {
		return domain.CheckConfig{}, err
	}
	if url != "" {
		cfg.AppURL = url
	}
	return cfg, nil
}

// newCheckService wires the outbound adapters for the app at appURL.
func newCheckService(appURL string) (*application.CheckService, error) {
	validator, err := schema.New()
	if err != nil {
		return nil, fmt.Errorf("loading result schemas: %w", err)
	}
	client := appclient.New(appclient.WithURL(appURL))
	return application.NewCheckService(
		client,
		validator,
		query.NewCompiler(),
		application.WithGitInfo(gitinfo.New()),
		application.WithMemo(func(next domain.AppCaller) (domain.AppCaller, error) {
			return appclient.NewMemo(next, appclient.DefaultMemoSize)
		}),
	), nil
}
