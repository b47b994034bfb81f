package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"confattach/internal/config"
	"confattach/internal/confluence"
	"confattach/pkg/logger"
)

var (
	pageRef    pageFlags
	listJSON   bool
	addFile    string
	addName    string
	addComment string
	addMinor   bool
)

var attachmentsCmd = &cobra.Command{
	Use:     "attachments",
	Aliases: []string{"att"},
	Short:   "List or upload page attachments",
}

var attachmentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the attachments of a page",
	Long: `List up to 100 attachments of a page, in the order Confluence returns them.

The page is given either by ID (--page) or by space and title (--space/--title).`,
	Example: `  confattach attachments list --page 123456
  confattach attachments list --space DOCS --title "Release Notes" --json`,
	RunE: runAttachmentsList,
}

var attachmentsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Upload a file as a new attachment",
	Long: `Upload a local file to a page as a new attachment.

--comment is only sent when the flag is given; pass --comment "" to send an
explicitly empty comment. --minor-edit defaults to attachments.minor_edit from
the configuration file.`,
	Example: `  confattach attachments add --page 123456 --file ./build/report.pdf
  confattach attachments add --page 123456 --file ./a.png --name architecture.png --comment "Q3 update"`,
	RunE: runAttachmentsAdd,
}

func loadClient() (*config.Config, confluence.ConfluenceClient, *logger.Logger, error) {
	log := logger.New(verbose)

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	client := newConfluenceClient(cfg.BaseURL(), cfg.Confluence.Username, cfg.Confluence.APIToken, log)
	return cfg, client, log, nil
}

func runAttachmentsList(cmd *cobra.Command, args []string) error {
	cfg, client, log, err := loadClient()
	if err != nil {
		return err
	}

	pageID, err := pageRef.resolve(client, cfg, log)
	if err != nil {
		return err
	}

	result, err := client.GetAttachments(pageID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if listJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if len(result.Attachments) == 0 {
		fmt.Fprintf(out, "No attachments on page %s\n", pageID)
		return nil
	}

	fmt.Fprintf(out, "📎 %d attachment(s) on page %s:\n\n", result.Total, pageID)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tTYPE\tSIZE\tVERSION\tCREATED\tCOMMENT")
	for _, att := range result.Attachments {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			att.ID, att.Title, att.MediaType, humanize.IBytes(uint64(att.FileSize)), att.Version, att.Created, att.Comment)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(result.Attachments) < result.Total {
		fmt.Fprintf(out, "\nShowing %d of %d attachments\n", len(result.Attachments), result.Total)
	}
	return nil
}

func runAttachmentsAdd(cmd *cobra.Command, args []string) error {
	if addFile == "" {
		return fmt.Errorf("file flag is required for add command")
	}

	info, err := os.Stat(addFile)
	if err != nil {
		return fmt.Errorf("failed to access file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory; provide a single file", addFile)
	}

	cfg, client, log, err := loadClient()
	if err != nil {
		return err
	}

	if limit := cfg.Attachments.MaxFileSize; limit > 0 && info.Size() > limit {
		return fmt.Errorf("%s is %s, larger than attachments.max_file_size (%s)",
			addFile, humanize.IBytes(uint64(info.Size())), humanize.IBytes(uint64(limit)))
	}

	pageID, err := pageRef.resolve(client, cfg, log)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(addFile)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	name := addName
	if name == "" {
		name = filepath.Base(addFile)
	}

	var comment *string
	if cmd.Flags().Changed("comment") {
		comment = &addComment
	}

	minor := cfg.Attachments.MinorEdit
	if cmd.Flags().Changed("minor-edit") {
		minor = addMinor
	}

	log.Debug("Uploading %s (%d bytes) to page %s as '%s'", addFile, len(content), pageID, name)

	att, err := client.AddAttachment(pageID, content, name, comment, &confluence.AddAttachmentOptions{MinorEdit: minor})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Uploaded '%s' (ID: %s, version %d, %s) to page %s\n",
		att.Title, att.ID, att.Version, humanize.IBytes(uint64(len(content))), att.PageID)
	if u := client.AttachmentDownloadURL(*att); u != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Download: %s\n", u)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(attachmentsCmd)
	attachmentsCmd.AddCommand(attachmentsListCmd, attachmentsAddCmd)

	pageRef.register(attachmentsListCmd)
	attachmentsListCmd.Flags().BoolVar(&listJSON, "json", false, "print the normalized result as JSON")

	pageRef.register(attachmentsAddCmd)
	attachmentsAddCmd.Flags().StringVarP(&addFile, "file", "f", "", "Path to the local file to upload (required)")
	attachmentsAddCmd.Flags().StringVarP(&addName, "name", "n", "", "Attachment filename (defaults to the file's base name)")
	attachmentsAddCmd.Flags().StringVarP(&addComment, "comment", "m", "", "Attachment comment (omitted unless given)")
	attachmentsAddCmd.Flags().BoolVar(&addMinor, "minor-edit", false, "Mark the upload as a minor edit")

	if err := attachmentsAddCmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Sprintf("Failed to mark file flag as required: %v", err))
	}
}
