package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/jhaveripatric/webagents/internal/manifest"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// load reads the manifest named in args, or the configured one. "-" is
// standard input.
func (a *app) load(cmd *cobra.Command, args []string) (*manifest.Manifest, string, error) {
	path := a.cfg.Site.ManifestPath
	if len(args) > 0 {
		path = args[0]
	}

	loader := manifest.NewLoader("")
	if path == "-" {
		m, err := loader.LoadReader(cmd.InOrStdin())
		return m, path, err
	}
	m, err := loader.Load(path)
	return m, path, err
}

func (a *app) parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse a manifest and print it as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := a.load(cmd, args)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(m)
		},
	}
}

func (a *app) fmtCmd() *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "fmt [file]",
		Short: "Rewrite a manifest in canonical heading form",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, path, err := a.load(cmd, args)
			if err != nil {
				return err
			}
			if write && path != "-" {
				if err := manifest.WriteFile(m, path); err != nil {
					return err
				}
				a.log.Info().Str("path", path).Msg("Formatted manifest")
				return nil
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), manifest.ToMarkdown(m))
			return err
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write result to the source file instead of stdout")
	return cmd
}

func (a *app) typesCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "types [file]",
		Short: "Generate TypeScript declarations for a manifest",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := a.load(cmd, args)
			if err != nil {
				return err
			}
			ts := manifest.GenerateTypeScript(m)
			if out != "" {
				return os.WriteFile(out, []byte(ts), 0o644)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), ts)
			return err
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write declarations to a file")
	return cmd
}

func (a *app) validateCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Lint a manifest",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, path, err := a.load(cmd, args)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			warnings := manifest.Validate(m)
			if len(warnings) == 0 {
				fmt.Fprintf(w, "%s %s %s\n", okStyle.Render("✓"), path, dimStyle.Render(fmt.Sprintf("(%d tools)", len(m.Tools))))
				return nil
			}

			for _, warning := range warnings {
				fmt.Fprintf(w, "%s %s\n", warnStyle.Render("⚠"), warning)
			}
			if strict {
				return fmt.Errorf("%s: %d warning(s)", path, len(warnings))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when there are warnings")
	return cmd
}

func (a *app) showCmd() *cobra.Command {
	var width int

	cmd := &cobra.Command{
		Use:   "show [file]",
		Short: "Render a manifest in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := a.load(cmd, args)
			if err != nil {
				return err
			}

			r, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(width),
			)
			if err != nil {
				return fmt.Errorf("create renderer: %w", err)
			}
			out, err := r.Render(manifest.ToMarkdown(m))
			if err != nil {
				return fmt.Errorf("render: %w", err)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().IntVar(&width, "width", 100, "word wrap width")
	return cmd
}

func (a *app) metaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "meta [path]",
		Short: "Print the discovery <meta> tag for a manifest path",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Site.ServePath
			if len(args) > 0 {
				path = args[0]
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), manifest.MetaTag(path))
			return err
		},
	}
}
