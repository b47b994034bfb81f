package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"confattach/internal/config"
	"confattach/internal/confluence"
	"confattach/pkg/logger"
)

// pageFlags identifies the target page either by ID or by space and title.
type pageFlags struct {
	page  string
	space string
	title string
}

func (p *pageFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&p.page, "page", "p", "", "Page ID")
	cmd.Flags().StringVarP(&p.space, "space", "s", "", "Space key used with --title (defaults to confluence.space_key)")
	cmd.Flags().StringVarP(&p.title, "title", "t", "", "Page title, resolved within the space")
}

func (p *pageFlags) resolve(client confluence.ConfluenceClient, cfg *config.Config, log *logger.Logger) (string, error) {
	if p.page != "" && p.title != "" {
		return "", fmt.Errorf("use either --page or --title, not both")
	}

	if p.page != "" {
		if !isNumeric(p.page) {
			log.Warn("Page ID '%s' is not numeric; using it as given", p.page)
		}
		return p.page, nil
	}

	if p.title == "" {
		return "", fmt.Errorf("--page or --title is required")
	}

	space := p.space
	if space == "" {
		space = cfg.Confluence.SpaceKey
	}
	if space == "" {
		return "", fmt.Errorf("space flag or confluence.space_key required to resolve --title")
	}

	log.Debug("Resolving page by title '%s' in space %s", p.title, space)
	page, err := client.FindPageByTitle(space, p.title)
	if err != nil {
		return "", fmt.Errorf("failed to resolve page '%s': %w", p.title, err)
	}
	if page == nil {
		return "", fmt.Errorf("page '%s' not found in space '%s'", p.title, space)
	}
	return page.ID, nil
}

func isNumeric(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}
