package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/folio"
	"github.com/poiesic/folio/chunker"
	"github.com/poiesic/folio/config"
	"github.com/poiesic/folio/core"
	"github.com/poiesic/folio/document"
	"github.com/poiesic/folio/search"
	"github.com/poiesic/folio/server"
	"github.com/poiesic/folio/session"
	"github.com/poiesic/folio/tui"
	"github.com/poiesic/folio/watch"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// withLibrary loads the configuration, opens the library and closes it when fn returns.
func withLibrary(c *cli.Context, fn func(ctx context.Context, lib *folio.Library) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	lib, err := openLibrary(cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := fn(ctx, lib)
	if closeErr := lib.Close(); closeErr != nil {
		return errors.Join(runErr, closeErr)
	}
	return runErr
}

// optionalLanguage parses --lang; empty means the session's language.
func optionalLanguage(c *cli.Context) (core.Language, error) {
	if strings.TrimSpace(c.String("lang")) == "" {
		return "", nil
	}
	return core.ParseLanguage(c.String("lang"))
}

type ingestResult struct {
	path  string
	state *session.State
	err   error
}

func ingestCommand(c *cli.Context) error {
	paths := c.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("at least one file is required")
	}
	lang, err := core.ParseLanguage(c.String("lang"))
	if err != nil {
		return err
	}

	return withLibrary(c, func(ctx context.Context, lib *folio.Library) error {
		workers := c.Int("workers")
		if workers <= 0 {
			workers = lib.Config().Session.Workers
		}
		pool, err := ants.NewPool(workers)
		if err != nil {
			return err
		}
		defer pool.Release()

		limit := document.WithMaxSize(lib.Config().MaxUploadBytes())
		progress := newProgressTracker(c.App.ErrWriter, len(paths))
		results := make([]ingestResult, len(paths))

		var wg sync.WaitGroup
		progress.Start()
		for i, path := range paths {
			task := func() {
				defer wg.Done()
				res := ingestResult{path: path}
				doc, err := document.Load(path, limit)
				if err == nil {
					res.state, err = lib.Ingest(ctx, doc, lang)
				}
				res.err = err
				results[i] = res
				progress.Record(err)
			}
			wg.Add(1)
			if err := pool.Submit(task); err != nil {
				task()
			}
		}
		wg.Wait()
		progress.Finish()

		p := newPrinter(c.App.Writer)
		var errs []error
		for _, res := range results {
			if res.err != nil {
				fmt.Fprintf(c.App.Writer, "%s %s: %v\n", p.err("FAIL"), res.path, res.err)
				errs = append(errs, fmt.Errorf("%s: %w", res.path, res.err))
				continue
			}
			md := res.state.Metadata()
			fmt.Fprintf(c.App.Writer, "%s %s  %s  %s\n",
				p.label(res.state.ID()), res.path, p.title(titleOrName(md, res.state.DocumentName())),
				p.dim(fmt.Sprintf("%d axioms, %d snippets, %d chunks",
					len(res.state.Axioms()), len(res.state.Snippets()), len(res.state.Chunks()))))
		}
		return errors.Join(errs...)
	})
}

func askCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("a question is required")
	}
	lang, err := optionalLanguage(c)
	if err != nil {
		return err
	}

	return withLibrary(c, func(ctx context.Context, lib *folio.Library) error {
		err := lib.Conversation().ChatStream(ctx, c.String("session"), question, lang, func(fragment string) error {
			_, err := fmt.Fprint(c.App.Writer, fragment)
			return err
		})
		fmt.Fprintln(c.App.Writer)
		return err
	})
}

func chatCommand(c *cli.Context) error {
	lang, err := optionalLanguage(c)
	if err != nil {
		return err
	}

	return withLibrary(c, func(ctx context.Context, lib *folio.Library) error {
		st, err := lib.Session(ctx, c.String("session"))
		if err != nil {
			return err
		}
		if lang == "" {
			lang = st.Language()
		}
		md := st.Metadata()
		return tui.Run(ctx, lib.Conversation(), tui.Options{
			SessionID: st.ID(),
			Title:     titleOrName(md, st.DocumentName()),
			Author:    md.Author,
			Language:  lang,
		})
	})
}

func snippetsCommand(c *cli.Context) error {
	return withLibrary(c, func(ctx context.Context, lib *folio.Library) error {
		snippets, err := lib.Conversation().Snippets(ctx, c.String("session"))
		if err != nil {
			return err
		}
		p := newPrinter(c.App.Writer)
		for i, s := range snippets {
			fmt.Fprintf(c.App.Writer, "%s %s\n", p.dim(fmt.Sprintf("%2d.", i+1)), p.quote(s))
		}
		return nil
	})
}

func sessionsListCommand(c *cli.Context) error {
	return withLibrary(c, func(ctx context.Context, lib *folio.Library) error {
		summaries, err := lib.ListSessions(ctx)
		if err != nil {
			return err
		}
		p := newPrinter(c.App.Writer)
		if len(summaries) == 0 {
			fmt.Fprintln(c.App.Writer, p.dim("No sessions."))
			return nil
		}
		for _, s := range summaries {
			title := s.Title
			if title == "" {
				title = s.DocumentName
			}
			if s.Author != "" {
				title += " by " + s.Author
			}
			fmt.Fprintf(c.App.Writer, "%s  %s  %s\n", p.label(s.ID), p.title(title),
				p.dim(fmt.Sprintf("%d turns, updated %s", s.Turns, s.UpdatedAt.Local().Format(time.DateTime))))
		}
		return nil
	})
}

func sessionsShowCommand(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("a session ID is required")
	}
	return withLibrary(c, func(ctx context.Context, lib *folio.Library) error {
		st, err := lib.Session(ctx, id)
		if err != nil {
			return err
		}
		w := c.App.Writer
		p := newPrinter(w)
		md := st.Metadata()

		fmt.Fprintln(w, p.title(titleOrName(md, st.DocumentName())))
		for _, field := range [][2]string{
			{"Author", md.Author},
			{"Document", st.DocumentName()},
			{"Language", st.Language().Name()},
			{"Chapters", md.Chapters},
			{"Summary", md.Summary},
		} {
			if field[1] != "" {
				fmt.Fprintf(w, "%s %s\n", p.label(field[0]+":"), field[1])
			}
		}
		fmt.Fprintf(w, "%s %d\n", p.label("Chunks:"), len(st.Chunks()))

		if axioms := st.Axioms(); len(axioms) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, p.title("Axioms"))
			for _, a := range axioms {
				fmt.Fprintf(w, "%s %s\n", p.label(a.Term+":"), a.Definition)
				if a.Significance != "" {
					fmt.Fprintf(w, "  %s\n", p.dim(a.Significance))
				}
			}
		}

		if history := st.History(); len(history) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, p.title("History"))
			for _, turn := range history {
				role := string(turn.Role)
				if turn.Status == core.TurnFailed {
					role += " " + p.err("(failed)")
				}
				fmt.Fprintf(w, "%s %s\n", p.label(role+":"), turn.Content)
			}
		}
		return nil
	})
}

func sessionsDeleteCommand(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("a session ID is required")
	}
	return withLibrary(c, func(ctx context.Context, lib *folio.Library) error {
		if err := lib.Conversation().DeleteSession(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Deleted %s\n", id)
		return nil
	})
}

// searchCommand runs the chunker and retriever over a local file. PDFs are
// read through their text layer; anything else is taken as plain text.
func searchCommand(c *cli.Context) error {
	if c.Args().Len() < 2 {
		return fmt.Errorf("a file and a query are required")
	}
	path := c.Args().First()
	query := strings.Join(c.Args().Tail(), " ")

	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	doc, err := document.Load(path, document.WithMaxSize(cfg.MaxUploadBytes()))
	if err != nil {
		return err
	}
	text := string(doc.Bytes)
	if doc.IsPDF() {
		if text, err = doc.PlainText(); err != nil {
			return err
		}
	}

	chunk, err := chunker.New(cfg.ChunkerOptions()...)
	if err != nil {
		return err
	}
	opts := cfg.RetrieverOptions()
	if k := c.Int("top-k"); k > 0 {
		opts = append(opts, search.WithTopK(k))
	}
	retriever, err := search.NewRetriever(append(opts, search.WithLogger(slog.Default()))...)
	if err != nil {
		return err
	}

	chunks := chunk.Split(text)
	results := retriever.RetrieveScored(query, chunks)

	w := c.App.Writer
	p := newPrinter(w)
	fmt.Fprintln(w, p.dim(fmt.Sprintf("%d chunks, %d matched", len(chunks), len(results))))
	for _, r := range results {
		fmt.Fprintf(w, "\n%s\n%s\n", p.title(fmt.Sprintf("chunk %d  score=%d", r.Index, r.Score)), strings.TrimSpace(r.Text))
	}
	return nil
}

func serveCommand(c *cli.Context) error {
	return withLibrary(c, func(ctx context.Context, lib *folio.Library) error {
		cfg := lib.Config()
		addr := c.String("addr")
		if addr == "" {
			addr = cfg.Server.Addr
		}

		srv := server.New(lib.Conversation(), lib.Sessions(),
			server.WithMaxUploadBytes(cfg.MaxUploadBytes()),
			server.WithToken(c.String("token")),
			server.WithLogger(slog.Default()))

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.ListenAndServe(addr)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return <-errCh
	})
}

func watchCommand(c *cli.Context) error {
	dir := c.Args().First()
	if dir == "" {
		return fmt.Errorf("a directory is required")
	}
	lang, err := core.ParseLanguage(c.String("lang"))
	if err != nil {
		return err
	}

	return withLibrary(c, func(ctx context.Context, lib *folio.Library) error {
		logger := slog.Default()
		w := watch.New(dir, watch.WithExtensions(lib.Config().Watch.Extensions...), watch.WithLogger(logger))
		defer w.Close()

		changes, err := w.Watch(ctx)
		if err != nil {
			return err
		}
		p := newPrinter(c.App.Writer)
		fmt.Fprintln(c.App.Writer, p.dim("Watching "+w.Root()+", Ctrl+C to stop."))

		limit := document.WithMaxSize(lib.Config().MaxUploadBytes())
		for change := range changes {
			if change.Type == watch.ChangeDeleted {
				logger.Info("document removed", "path", change.Path)
				continue
			}
			doc, err := document.Load(change.Path, limit)
			if err != nil {
				logger.Warn("cannot load document", "path", change.Path, "err", err)
				continue
			}
			st, err := lib.Ingest(ctx, doc, lang)
			if err != nil {
				logger.Error("ingestion failed", "path", change.Path, "err", err)
				fmt.Fprintf(c.App.Writer, "%s %s: %v\n", p.err("FAIL"), change.Path, err)
				continue
			}
			fmt.Fprintf(c.App.Writer, "%s %s  %s\n", p.label(st.ID()), filepath.Base(change.Path),
				p.title(titleOrName(st.Metadata(), st.DocumentName())))
		}
		return nil
	})
}

func configInitCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		var err error
		if path, err = config.DefaultUserConfigPath(); err != nil {
			return err
		}
	}
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}
	if err := config.Save(path, config.Default()); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Wrote %s\n", path)
	return nil
}

func configShowCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = c.App.Writer.Write(data)
	return err
}

func titleOrName(md core.Metadata, name string) string {
	if md.Title != "" {
		return md.Title
	}
	if name != "" {
		return name
	}
	return "Untitled"
}
