// Package project edits files of a freshly scaffolded application.
package project

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/soda-framework/installer/internal/logger"
)

// anchorProvider is the provider line the CMS provider is inserted after.
const anchorProvider = `App\Providers\RouteServiceProvider::class,`

// deployEnvTemplate renders the application's environment variables on MIK deploys.
const deployEnvTemplate = "<% @application[:environment_variables].each do |key, value| -%>\r\n<%= key.upcase %>=<%= value %>\r\n<% end %>"

// Patcher applies the configuration edits a CMS install needs.
type Patcher struct {
	Fs afero.Fs
}

// RegisterProvider adds provider to config/app.php right after the route
// service provider. A missing config file is left alone, as is one that
// already registers provider.
func (p *Patcher) RegisterProvider(dir, provider string) error {
	configPath := filepath.Join(dir, "config", "app.php")

	contents, err := afero.ReadFile(p.Fs, configPath)
	if err != nil {
		logger.Debug("[DEBUG] No application config at %s: %v\n", configPath, err)
		return nil
	}
	text := string(contents)
	if strings.Contains(text, provider) {
		logger.Debug("[DEBUG] %s already registers %s\n", configPath, provider)
		return nil
	}
	if !strings.Contains(text, anchorProvider) {
		logger.Warn("[WARN] %s has no %s entry; register %s manually\n", configPath, anchorProvider, provider)
		return nil
	}

	replacement := anchorProvider + "\n\n" + strings.Repeat(" ", 8) + provider + ","
	text = strings.Replace(text, anchorProvider, replacement, 1)

	if err := afero.WriteFile(p.Fs, configPath, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to update %s: %w", configPath, err)
	}
	logger.Debug("[DEBUG] Registered %s in %s\n", provider, configPath)
	return nil
}

// WriteDeployEnv writes the env.erb template used by MIK deploys into dir.
func (p *Patcher) WriteDeployEnv(dir string) error {
	target := filepath.Join(dir, "env.erb")
	if err := afero.WriteFile(p.Fs, target, []byte(deployEnvTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	return nil
}
