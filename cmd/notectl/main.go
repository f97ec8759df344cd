package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"notesync-be/internal/client"
	"notesync-be/internal/config"
	"notesync-be/internal/editorsync"
	"notesync-be/internal/entity"
	"notesync-be/internal/localcache"
	"notesync-be/internal/pkg/logger"
	"notesync-be/pkg/events"
	pktNats "notesync-be/pkg/nats"

	"github.com/docopt/docopt-go"
	"github.com/fatih/color"
)

const NotectlVersion = "0.1.0"

const usage = `Notesync control.

Defaults come from SYNC_SERVER_URL, SYNC_LOCAL_DB_PATH and NATS_URL.

Usage:
    notectl show [--server=<url>] [--token=<jwt>] <id>
    notectl new [--server=<url>] [--token=<jwt>] [--title=<title>] [--parent=<pid>] [<content>]
    notectl edit [--server=<url>] [--token=<jwt>] [--title=<title>] [--parent=<pid>] <id> [<content>]
    notectl rm [--server=<url>] [--token=<jwt>] <id>
    notectl trash (delete|restore) [--server=<url>] [--token=<jwt>] [--parent=<pid>] <id>
    notectl tree [--server=<url>] [--token=<jwt>]
    notectl local [--older-than=<minutes>] [--limit=<n>]
    notectl events [--nats_url=<url>]
    notectl -h | --help
    notectl --version

Options:
    -h --help                Show this screen.
    --version                Show version.
    --server=<url>           API base url.
    --token=<jwt>            Bearer token when auth is enabled.
    --title=<title>          Note title.
    --parent=<pid>           Parent note id.
    --older-than=<minutes>   Only local notes untouched for this long [default: 0].
    --limit=<n>              Maximum local notes to list [default: 50].
    --nats_url=<url>         NATS server to tail.

Content "-" is read from stdin.`

type app struct {
	cfg    *config.Config
	opts   docopt.Opts
	logger logger.ILogger
}

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], NotectlVersion)
	if err != nil {
		fail(err)
	}

	cfg := config.Load()
	zapLog := logger.NewIsolatedLogger(cfg.Sync.LogFilePath)
	defer zapLog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{cfg: cfg, opts: opts, logger: zapLog}

	switch {
	case flag(opts, "show"):
		err = a.show(ctx)
	case flag(opts, "new"):
		err = a.edit(ctx, editorsync.Target{New: true, PID: str(opts, "--parent")})
	case flag(opts, "edit"):
		err = a.edit(ctx, editorsync.Target{ID: str(opts, "<id>")})
	case flag(opts, "rm"):
		err = a.client().DeleteNote(ctx, str(opts, "<id>"))
	case flag(opts, "trash"):
		err = a.trash(ctx)
	case flag(opts, "tree"):
		err = a.tree(ctx)
	case flag(opts, "local"):
		err = a.local(ctx)
	case flag(opts, "events"):
		err = a.events(ctx)
	}
	if err != nil {
		fail(err)
	}
}

func flag(opts docopt.Opts, name string) bool {
	v, _ := opts.Bool(name)
	return v
}

func str(opts docopt.Opts, name string) string {
	v, _ := opts.String(name)
	return v
}

func fail(err error) {
	color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func (a *app) client() *client.Client {
	server := str(a.opts, "--server")
	if server == "" {
		server = a.cfg.Sync.ServerURL
	}
	var opts []client.Option
	if token := str(a.opts, "--token"); token != "" {
		opts = append(opts, client.WithToken(token))
	}
	return client.New(server, a.cfg.Sync.RequestTimeout, opts...)
}

func (a *app) show(ctx context.Context) error {
	note, err := a.client().GetNote(ctx, str(a.opts, "<id>"))
	if err != nil {
		return err
	}
	color.New(color.Bold).Printf("%s\n", note.Title)
	color.New(color.Faint).Printf("id=%s parent=%s date=%s\n\n", note.Id, note.Pid, note.Date)
	fmt.Print(note.Content)
	return nil
}

// edit runs the same open, edit and save cycle an editor would.
func (a *app) edit(ctx context.Context, target editorsync.Target) error {
	cache, err := localcache.Open(a.cfg.Sync.LocalDBPath)
	if err != nil {
		return err
	}
	defer cache.Close()

	session := editorsync.NewSession(cache, a.client(), editorsync.Options{
		Debounce:  a.cfg.Sync.Debounce,
		Notifier:  cliNotifier{},
		Navigator: cliNavigator{},
		Logger:    a.logger,
	})
	defer session.Close(ctx)

	if err := session.Open(ctx, target); err != nil {
		return err
	}

	if title, err := a.opts.String("--title"); err == nil && title != "" {
		session.SetTitle(title)
	}
	if pid := str(a.opts, "--parent"); pid != "" && !target.New {
		session.SetPID(pid)
	}
	if raw := str(a.opts, "<content>"); raw != "" {
		content, err := readContent(raw)
		if err != nil {
			return err
		}
		session.SetContent(content)
	}

	if err := session.Save(ctx); err != nil {
		return err
	}
	if id := session.NoteID(); id != "" {
		fmt.Println(id)
	}
	return nil
}

func readContent(raw string) (string, error) {
	if raw != "-" {
		return raw, nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func (a *app) trash(ctx context.Context) error {
	action := "delete"
	if flag(a.opts, "restore") {
		action = "restore"
	}
	return a.client().Trash(ctx, action, str(a.opts, "<id>"), str(a.opts, "--parent"))
}

func (a *app) tree(ctx context.Context) error {
	tree, err := a.client().GetTree(ctx)
	if err != nil {
		return err
	}
	printTree(tree, tree.Roots, 0)
	return nil
}

func printTree(tree *entity.Tree, ids []string, depth int) {
	for _, id := range ids {
		item, ok := tree.Items[id]
		if !ok {
			continue
		}
		title := item.Title
		if title == "" {
			title = color.New(color.Faint).Sprint("(untitled)")
		}
		fmt.Printf("%s%s %s\n", strings.Repeat("  ", depth), title, color.New(color.Faint).Sprint(id))
		printTree(tree, item.Children, depth+1)
	}
}

func (a *app) local(ctx context.Context) error {
	minutes, err := a.opts.Int("--older-than")
	if err != nil {
		return fmt.Errorf("--older-than: %w", err)
	}
	limit, err := a.opts.Int("--limit")
	if err != nil {
		return fmt.Errorf("--limit: %w", err)
	}

	cache, err := localcache.Open(a.cfg.Sync.LocalDBPath)
	if err != nil {
		return err
	}
	defer cache.Close()

	cutoff := time.Now().Add(-time.Duration(minutes) * time.Minute).UnixMilli()
	notes, err := cache.ListOlderThan(ctx, cutoff, limit)
	if err != nil {
		return err
	}
	for _, n := range notes {
		modified := time.UnixMilli(n.LastModified).Format(time.RFC3339)
		fmt.Printf("%s  %s  %s\n", color.CyanString(n.ID), modified, n.Title)
	}
	return nil
}

// events tails the note events forwarded to NATS until interrupted.
func (a *app) events(ctx context.Context) error {
	url := str(a.opts, "--nats_url")
	if url == "" {
		url = a.cfg.Events.NatsURL
	}
	if url == "" {
		return fmt.Errorf("no NATS url configured")
	}

	sub, err := pktNats.NewSubscriber(url)
	if err != nil {
		return err
	}
	defer sub.Close()

	err = sub.Subscribe(ctx, pktNats.SubjectPrefix+".>", "", func(ctx context.Context, event events.Event) error {
		var noteID string
		if base, ok := event.(events.BaseEvent); ok {
			noteID = base.NoteID()
		}
		fmt.Printf("%s %s %s\n",
			event.Timestamp().Format(time.RFC3339),
			color.YellowString(event.EventType()),
			noteID)
		return nil
	})
	if err != nil {
		return err
	}

	<-ctx.Done()
	return nil
}

type cliNotifier struct{}

func (cliNotifier) Info(message string) {
	color.New(color.FgGreen).Fprintln(os.Stderr, message)
}

func (cliNotifier) Error(message string, err error) {
	color.New(color.FgRed).Fprintf(os.Stderr, "%s: %v\n", message, err)
}

type cliNavigator struct{}

func (cliNavigator) Replace(id string) {
	color.New(color.FgYellow).Fprintf(os.Stderr, "note is now %s\n", id)
}

func (cliNavigator) Home() {}
