package commands

import (
	"confattach/internal/confluence"
	"confattach/pkg/logger"
)

// newConfluenceClient is a package-level variable to allow test injection of a mock.
var newConfluenceClient = func(baseURL, user, token string, log *logger.Logger) confluence.ConfluenceClient {
	return confluence.NewClient(baseURL, user, token, log)
}
