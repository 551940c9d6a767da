package main

import (
	"strings"
	"sync"

	"reelsmith/internal/config"
)

type commandContext struct {
	apiFlag    *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(apiFlag, configFlag *string) *commandContext {
	return &commandContext{
		apiFlag:    apiFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// apiAddress resolves the daemon API address: the --api flag wins, then
// the configured bind address.
func (c *commandContext) apiAddress() string {
	if c.apiFlag != nil {
		if addr := strings.TrimSpace(*c.apiFlag); addr != "" {
			return addr
		}
	}
	if cfg := c.configValue(); cfg != nil {
		if addr := strings.TrimSpace(cfg.Paths.APIBind); addr != "" {
			return addr
		}
	}
	return "127.0.0.1:7878"
}

func (c *commandContext) apiToken() string {
	if cfg := c.configValue(); cfg != nil {
		return strings.TrimSpace(cfg.Paths.APIToken)
	}
	return ""
}

func (c *commandContext) client() *apiClient {
	return newAPIClient(c.apiAddress(), c.apiToken())
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
