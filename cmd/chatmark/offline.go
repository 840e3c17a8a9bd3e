package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/chatmark/internal/app"
	"github.com/MrSnakeDoc/chatmark/internal/domain"
	"github.com/MrSnakeDoc/chatmark/internal/service"
	"github.com/MrSnakeDoc/chatmark/internal/transfer"
	"github.com/MrSnakeDoc/chatmark/internal/utils"
)

// withService runs fn against the configured backend without the HTTP
// layer. Change notifications are dropped.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *service.Service) error) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	backend, err := app.OpenBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer utils.CloseLogged(backend, log, "storage backend")

	svc, err := service.New(service.Config{
		Repository: backend,
		Sessions:   backend,
		Settings:   backend,
		IDProvider: domain.NewUUIDProvider(),
		Clock:      time.Now,
		Logger:     log,
	})
	if err != nil {
		return err
	}
	return fn(ctx, svc)
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseProvider(raw string) (domain.Provider, error) {
	if raw == "" {
		return "", nil
	}
	p, ok := domain.ParseProvider(raw)
	if !ok {
		return "", fmt.Errorf("unknown provider %q", raw)
	}
	return p, nil
}

func newCaptureCmd() *cobra.Command {
	var (
		session, htmlPath, provider, needle string
		name, note, parent, title           string
		start, end                          int
		save                                bool
	)
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Build an anchor from a selection in a saved conversation page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := readInput(htmlPath, cmd.InOrStdin())
			if err != nil {
				return err
			}
			p, err := parseProvider(provider)
			if err != nil {
				return err
			}
			req := service.CaptureRequest{
				SessionID:    session,
				HTML:         string(page),
				Provider:     p,
				Needle:       needle,
				Save:         save,
				DisplayName:  name,
				Note:         note,
				Parent:       domain.ChildOf(parent),
				SessionTitle: title,
			}
			if cmd.Flags().Changed("start") || cmd.Flags().Changed("end") {
				req.Start, req.End = &start, &end
			}
			return withService(cmd, func(ctx context.Context, svc *service.Service) error {
				res, err := svc.Capture(ctx, req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&session, "session", "", "Session id")
	f.StringVar(&htmlPath, "html", "-", "HTML file of the conversation page (- for stdin)")
	f.StringVar(&provider, "provider", "", "Chat provider (ChatGPT, Gemini, Claude)")
	f.StringVar(&needle, "text", "", "Select the first occurrence of this text")
	f.IntVar(&start, "start", 0, "Selection start in flattened text")
	f.IntVar(&end, "end", 0, "Selection end in flattened text")
	f.BoolVar(&save, "save", false, "Store the anchor as a bookmark")
	f.StringVar(&name, "name", "", "Bookmark display name")
	f.StringVar(&note, "note", "", "Bookmark note")
	f.StringVar(&parent, "parent", "", "Parent folder id (root when empty)")
	f.StringVar(&title, "title", "", "Session title to record")
	_ = cmd.MarkFlagRequired("session")
	return cmd
}

func newResolveCmd() *cobra.Command {
	var session, id, htmlPath, provider string
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Locate a stored bookmark in a saved conversation page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := readInput(htmlPath, cmd.InOrStdin())
			if err != nil {
				return err
			}
			p, err := parseProvider(provider)
			if err != nil {
				return err
			}
			return withService(cmd, func(ctx context.Context, svc *service.Service) error {
				nav, err := svc.Resolve(ctx, session, id, string(page), p)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), nav)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&session, "session", "", "Session id")
	f.StringVar(&id, "id", "", "Bookmark id")
	f.StringVar(&htmlPath, "html", "-", "HTML file of the conversation page (- for stdin)")
	f.StringVar(&provider, "provider", "", "Chat provider (ChatGPT, Gemini, Claude)")
	_ = cmd.MarkFlagRequired("session")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newExportCmd() *cobra.Command {
	var session, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a session's bookmark tree as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *service.Service) error {
				doc, err := svc.Export(ctx, session)
				if err != nil {
					return err
				}
				if out == "" || out == "-" {
					return transfer.Write(cmd.OutOrStdout(), doc)
				}
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				if err := transfer.Write(f, doc); err != nil {
					utils.Close(f)
					return err
				}
				return f.Close()
			})
		},
	}
	cmd.Flags().StringVar(&session, "session", "", "Session id")
	cmd.Flags().StringVarP(&out, "output", "o", "-", "Output file (- for stdout)")
	_ = cmd.MarkFlagRequired("session")
	return cmd
}

func newImportCmd() *cobra.Command {
	var session string
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Append the bookmarks of a YAML export to a session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var doc transfer.Document
			var err error
			if len(args) == 1 && args[0] != "-" {
				doc, err = transfer.NewLoader(args[0]).Load()
			} else {
				var data []byte
				if data, err = io.ReadAll(cmd.InOrStdin()); err == nil {
					doc, err = transfer.Parse(data)
				}
			}
			if err != nil {
				return err
			}
			return withService(cmd, func(ctx context.Context, svc *service.Service) error {
				records, err := svc.Import(ctx, session, doc)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d records into %s\n", len(records), session)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&session, "session", "", "Session id")
	_ = cmd.MarkFlagRequired("session")
	return cmd
}
