package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configFile string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "confattach",
	Short: "Manage Confluence page attachments",
	Long: `confattach lists and uploads attachments on Confluence pages.

Credentials are read from the configuration file and may be overridden with the
CONFLUENCE_BASE_URL, CONFLUENCE_USERNAME, CONFLUENCE_API_TOKEN and
CONFLUENCE_SPACE_KEY environment variables.`,
	Example: `  confattach attachments list --page 123456
  confattach attachments add --page 123456 --file ./diagram.png --comment "v2"
  confattach attachments add --space DOCS --title "Runbook" --file ./out.pdf --minor-edit`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}
