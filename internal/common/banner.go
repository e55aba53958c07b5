package common

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner. Only used with the HTTP
// transport; stdout belongs to the protocol under stdio.
func PrintBanner(config *Config, logger arbor.ILogger) {
	banner.PrintSimple("HSI MCP", GetVersion())

	fmt.Printf("  MCP endpoint : http://%s:%d%s\n", config.Server.Host, config.Server.Port, config.Server.Endpoint)
	fmt.Printf("  Health       : http://%s:%d/api/health\n", config.Server.Host, config.Server.Port)
	fmt.Printf("  AI provider  : %s\n", describeProvider(config))
	fmt.Printf("  Cache        : %s\n", describeCache(config))
	fmt.Println()

	logger.Info().
		Str("version", GetVersion()).
		Str("host", config.Server.Host).
		Int("port", config.Server.Port).
		Msg("HSI MCP server starting")
}

func describeProvider(config *Config) string {
	switch {
	case config.LLM.DefaultProvider == "claude" && config.HasClaude():
		return "claude (" + config.Claude.Model + ")"
	case config.HasGemini():
		return "gemini (" + config.Gemini.Model + ")"
	case config.HasClaude():
		return "claude (" + config.Claude.Model + ")"
	default:
		return "none (keyword summaries, no company lookup)"
	}
}

func describeCache(config *Config) string {
	if !config.Cache.Enabled {
		return "disabled"
	}
	store := "memory"
	if config.Cache.Path != "" {
		store = config.Cache.Path
	}
	return fmt.Sprintf("%s, ttl %s, max %d", store, config.Cache.TTL, config.Cache.MaxItems)
}
