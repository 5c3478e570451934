package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/debemdeboas/x-mcp/internal/logger"
	"github.com/debemdeboas/x-mcp/internal/model"
	"github.com/debemdeboas/x-mcp/internal/publish"
)

const previewWidth = 60

var draftsFormat string

var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "Inspect and manage stored drafts",
}

var draftsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored drafts",
	Args:  cobra.NoArgs,
	RunE:  draftsListAction,
}

var draftsShowCmd = &cobra.Command{
	Use:   "show <draft-id>",
	Short: "Print one draft as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  draftsShowAction,
}

var draftsDeleteCmd = &cobra.Command{
	Use:   "delete <draft-id>",
	Short: "Delete a draft without publishing it",
	Args:  cobra.ExactArgs(1),
	RunE:  draftsDeleteAction,
}

func init() {
	draftsListCmd.Flags().StringVar(&draftsFormat, "format", "terminal", "output format: terminal, json")
	draftsCmd.AddCommand(draftsListCmd, draftsShowCmd, draftsDeleteCmd)
	rootCmd.AddCommand(draftsCmd)
}

func draftsListAction(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	entries, err := store.List(cmd.Context())
	if err != nil {
		return err
	}

	switch draftsFormat {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "terminal", "":
		printDrafts(cmd.OutOrStdout(), entries)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want terminal or json)", draftsFormat)
	}
}

func draftsShowAction(cmd *cobra.Command, args []string) error {
	id, err := model.ParseID(args[0])
	if err != nil {
		return err
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	draft, err := store.Get(cmd.Context(), id)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(model.Entry{ID: id, Draft: draft})
}

func draftsDeleteAction(cmd *cobra.Command, args []string) error {
	id, err := model.ParseID(args[0])
	if err != nil {
		return err
	}

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	progress, closeLedger, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer closeLedger()

	// Deleting through the publisher also drops any partial publish progress.
	pub := publish.New(store, progress, nil, publish.WithLogger(logger.Component(log, "publish")))
	if err := pub.Delete(cmd.Context(), id); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted draft %s\n", id)
	return nil
}

var (
	idStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	kindStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	previewStyle = lipgloss.NewStyle().PaddingLeft(2)
)

func printDrafts(w io.Writer, entries []model.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No drafts.")
		return
	}

	fmt.Fprintf(w, "%d drafts\n\n", len(entries))
	for _, e := range entries {
		kind := string(e.Draft.Kind())
		if e.Draft.Kind() == model.KindThread {
			kind = fmt.Sprintf("thread of %d", len(e.Draft.Contents))
		}
		if e.Draft.MediaID != "" {
			kind += ", media " + e.Draft.MediaID
		}

		fmt.Fprintf(w, "%s  %s  %s\n",
			idStyle.Render(string(e.ID)),
			kindStyle.Render(kind),
			dimStyle.Render(e.Draft.Timestamp.Local().Format("2006-01-02 15:04")),
		)
		for _, text := range e.Draft.Texts() {
			fmt.Fprintln(w, previewStyle.Render(preview(text)))
		}
		fmt.Fprintln(w)
	}
}

// preview flattens text to one line of at most previewWidth runes.
func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= previewWidth {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewWidth-1]) + "…"
}
