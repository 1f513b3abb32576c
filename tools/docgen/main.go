package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"billing-docs/internal/bootstrap"
	"billing-docs/internal/config"
	documents "billing-docs/internal/documents/domain"
	"billing-docs/internal/documents/infrastructure/docx"
	"billing-docs/internal/documents/interfaces"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "docgen",
		Short:         "Render and inspect contract and proposal documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(renderCmd())
	rootCmd.AddCommand(annexCmd())
	rootCmd.AddCommand(inspectCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func renderCmd() *cobra.Command {
	var documentID, recordID string
	cmd := &cobra.Command{
		Use:       "render [contract|proposal]",
		Short:     "Render a record with a document template and convert it to PDF",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"contract", "proposal"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := documents.ParseKind(args[0])
			if !ok {
				return fmt.Errorf("unknown kind %q", args[0])
			}
			return withDocuments(func(docs *bootstrap.Documents) error {
				provider, _ := docs.Pipeline.Provider(kind)
				result, err := docs.Pipeline.Render(cmd.Context(), provider, documentID, recordID)
				if err != nil {
					return err
				}
				return printJSON(result)
			})
		},
	}
	cmd.Flags().StringVar(&documentID, "document", "", "document template id")
	cmd.Flags().StringVar(&recordID, "id", "", "contract or proposal id")
	_ = cmd.MarkFlagRequired("document")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func annexCmd() *cobra.Command {
	var recordID, format, out string
	cmd := &cobra.Command{
		Use:   "annex [contract|proposal]",
		Short: "Export the payment schedule and item breakdown of a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := documents.ParseKind(args[0])
			if !ok {
				return fmt.Errorf("unknown kind %q", args[0])
			}
			build := interfaces.BuildAnnexPDF
			switch format {
			case "pdf":
			case "xlsx":
				build = interfaces.BuildAnnexXLSX
			default:
				return fmt.Errorf("format must be pdf or xlsx, got %q", format)
			}
			return withDocuments(func(docs *bootstrap.Documents) error {
				provider, _ := docs.Pipeline.Provider(kind)
				preview, err := docs.Pipeline.Preview(cmd.Context(), provider, recordID)
				if err != nil {
					return err
				}
				data, err := build(preview)
				if err != nil {
					return err
				}
				if out == "" {
					out = preview.Record.OutputStem() + "_anexo." + format
				}
				if err := os.WriteFile(out, data, 0o644); err != nil {
					return err
				}
				fmt.Println(out)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&recordID, "id", "", "contract or proposal id")
	cmd.Flags().StringVarP(&format, "format", "f", "pdf", "output format (pdf or xlsx)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (defaults to <stem>_anexo.<format>)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func inspectCmd() *cobra.Command {
	var asJSON, strict bool
	cmd := &cobra.Command{
		Use:   "inspect [template.docx]",
		Short: "List the placeholders a template uses and those no render can fill",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			schema, err := docx.NewRenderer().Inspect(data)
			if err != nil {
				return err
			}
			unsupported := schema.Unsupported(documents.DocumentSchema())

			if asJSON {
				if err := printJSON(map[string]any{"fields": schema, "unsupported": unsupported}); err != nil {
					return err
				}
			} else {
				printSchema(schema, "")
				if len(unsupported) > 0 {
					fmt.Printf("\nunsupported: %s\n", strings.Join(unsupported, ", "))
				}
			}
			if strict && len(unsupported) > 0 {
				return errors.New("template uses placeholders no render can fill")
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "output as JSON")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when the template uses unsupported placeholders")
	return cmd
}

func withDocuments(run func(*bootstrap.Documents) error) error {
	logger := log.New(os.Stderr, "", log.LstdFlags)
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.PingContext(context.Background()); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}
	docs, err := bootstrap.BuildDocuments(cfg, db, logger)
	if err != nil {
		return err
	}
	return run(docs)
}

func printSchema(schema documents.Schema, indent string) {
	for _, name := range schema.Names() {
		spec := schema[name]
		if spec.Kind == documents.FieldList {
			fmt.Printf("%s%s []\n", indent, name)
			printSchema(spec.Item, indent+"  ")
			continue
		}
		fmt.Printf("%s%s\n", indent, name)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
