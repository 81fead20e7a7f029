package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pgale/dripplay/internal/bookmark"
	"github.com/pgale/dripplay/internal/catalog"
	"github.com/pgale/dripplay/internal/config"
	"github.com/pgale/dripplay/internal/domain"
	"github.com/pgale/dripplay/internal/log"
	"github.com/pgale/dripplay/internal/playback"
	"github.com/pgale/dripplay/internal/progress"
	"github.com/pgale/dripplay/internal/remote"
	"github.com/pgale/dripplay/internal/store"
)

// Version is set at build time via -ldflags
var Version = "dev"

const tickInterval = time.Second

func main() {
	var showVersion, resetCache bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.BoolVar(&resetCache, "reset-cache", false, "clear the on-disk collection cache and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("dripplay %s\n", Version)
		return
	}

	if err := run(resetCache); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(resetCache bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := log.Setup(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting dripplay", "version", Version)

	if resetCache {
		if err := config.ClearCache(cfg.Cache.Dir); err != nil {
			return err
		}
		fmt.Println("Collection cache cleared.")
		return nil
	}

	if !cfg.IsConfigured() {
		return runSetupFlow(cfg)
	}

	client := remote.NewClient(cfg.Server.URL, cfg.Server.Token, logger)

	catalogStore, err := store.New(cfg.Cache.Dir, cfg.Server.URL)
	if err != nil {
		return fmt.Errorf("failed to open catalog cache: %w", err)
	}
	defer catalogStore.Close()

	catalogSvc := catalog.NewService(client, catalogStore, logger)
	progressSvc := progress.NewService(client, logger)
	bookmarkSvc := bookmark.NewService(client, logger)

	session := playback.NewSession(cfg.Learner.ID, progressSvc, &consoleObserver{}, logger)
	if cfg.Playback.FlushIntervalSeconds > 0 {
		session.SetFlushInterval(time.Duration(cfg.Playback.FlushIntervalSeconds) * time.Second)
	}
	session.SetDefaultRate(cfg.Playback.DefaultRate)

	shell := &shell{
		cfg:       cfg,
		logger:    logger,
		catalog:   catalogSvc,
		bookmarks: bookmarkSvc,
		session:   session,
	}
	return shell.loop()
}

// runSetupFlow handles the initial setup when not configured
func runSetupFlow(cfg *config.Config) error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println()
	fmt.Println("Welcome to dripplay!")
	fmt.Println()

	prompt := func(label string) (string, error) {
		for {
			fmt.Printf("%s: ", label)
			input, err := reader.ReadString('\n')
			if err != nil {
				return "", fmt.Errorf("failed to read input: %w", err)
			}
			value := strings.TrimSpace(input)
			if value == "" {
				fmt.Println("Value cannot be empty. Please try again.")
				continue
			}
			return value, nil
		}
	}

	serverURL, err := prompt("Server URL (e.g., https://platform.example.com)")
	if err != nil {
		return err
	}
	token, err := prompt("Access token")
	if err != nil {
		return err
	}
	learnerID, err := prompt("Learner ID")
	if err != nil {
		return err
	}

	cfg.Server.URL = serverURL
	cfg.Server.Token = token
	cfg.Learner.ID = learnerID

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("Configuration saved!")
	fmt.Println()
	fmt.Println("Run dripplay again to start the application.")

	return nil
}

// shell is the interactive line-based player frontend
type shell struct {
	cfg       *config.Config
	logger    *slog.Logger
	catalog   *catalog.Service
	bookmarks *bookmark.Service
	session   *playback.Session

	src domain.ContentSource
}

func (sh *shell) loop() error {
	ctx := context.Background()
	reader := bufio.NewScanner(os.Stdin)

	fmt.Println("dripplay. Type 'help' for commands.")

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	lines := make(chan string)
	go func() {
		for reader.Scan() {
			lines <- reader.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ticker.C:
			sh.tick(ctx)
		case line, ok := <-lines:
			if !ok {
				return sh.session.Teardown(ctx)
			}
			quit, err := sh.dispatch(ctx, line)
			if err != nil {
				fmt.Printf("error: %v\n", err)
			}
			if quit {
				return sh.session.Teardown(ctx)
			}
		}
	}
}

// tick drives playback time forward while playing
func (sh *shell) tick(ctx context.Context) {
	res, err := sh.session.Tick(ctx, tickInterval)
	if err != nil {
		sh.logger.Error("tick failed", "error", err)
		return
	}
	if res == nil {
		return
	}
	if res.Outcome == playback.OutcomeResolveNext {
		sh.resolveNext(ctx, res.Index)
	}
}

// resolveNext re-resolves a module collection and re-seeds at the proposed
// index; the collection may have been edited since the context was built.
func (sh *shell) resolveNext(ctx context.Context, index int) {
	pctx, err := sh.catalog.Refresh(ctx, sh.cfg.Learner.ID, sh.src)
	if err != nil {
		fmt.Printf("could not refresh collection: %v\n", err)
		return
	}
	if index >= len(pctx.Items) {
		fmt.Println("collection finished")
		return
	}
	if err := sh.session.Seed(ctx, pctx, index); err != nil {
		fmt.Printf("could not continue: %v\n", err)
		return
	}
	if err := sh.session.Play(); err != nil {
		fmt.Printf("could not play: %v\n", err)
	}
}

func (sh *shell) dispatch(ctx context.Context, line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		printHelp()
	case "open":
		err = sh.cmdOpen(ctx, args)
	case "list":
		sh.cmdList()
	case "play":
		err = sh.session.Play()
	case "pause":
		err = sh.session.Pause(ctx)
	case "seek":
		err = sh.cmdSeek(ctx, args)
	case "skip":
		err = sh.cmdSkip(ctx, args)
	case "rate":
		err = sh.cmdRate(args)
	case "next":
		err = sh.cmdNext(ctx)
	case "goto":
		err = sh.cmdGoTo(ctx, args)
	case "mark":
		err = sh.cmdMark(ctx, args)
	case "marks":
		err = sh.cmdMarks(ctx)
	case "unmark":
		err = sh.cmdUnmark(ctx, args)
	case "status":
		sh.cmdStatus()
	case "refresh":
		err = sh.cmdRefresh(ctx)
	case "quit", "exit":
		return true, nil
	default:
		fmt.Printf("unknown command %q, try 'help'\n", cmd)
	}
	return false, err
}

func printHelp() {
	fmt.Print(`commands:
  open tracks|modules <collection-id> [index]   load a collection and start
  list                                          show items with lock state
  play | pause                                  transport
  seek <seconds>   skip <+/-seconds>            position
  rate <multiplier>                             playback speed
  next                                          advance to next unlocked item
  goto <index>                                  jump to an item
  mark [label]     marks     unmark <id>        bookmarks on the current item
  status                                        current item and position
  refresh                                       re-fetch the open collection
  quit
`)
}

func (sh *shell) cmdOpen(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: open tracks|modules <collection-id> [index]")
	}
	var src domain.ContentSource
	switch args[0] {
	case "tracks":
		src = domain.Tracks(args[1])
	case "modules":
		src = domain.Modules(args[1])
	default:
		return fmt.Errorf("unknown source kind %q", args[0])
	}

	start := 0
	if len(args) > 2 {
		n, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("bad index %q", args[2])
		}
		start = n
	}

	pctx, err := sh.catalog.Build(ctx, sh.cfg.Learner.ID, src)
	if err != nil {
		if errors.Is(err, domain.ErrCollectionUnavailable) {
			fmt.Println("collection unavailable, showing nothing to play")
		}
		return err
	}
	if len(pctx.Items) == 0 {
		fmt.Println("collection has no playable items")
		return nil
	}

	if err := sh.session.Seed(ctx, pctx, start); err != nil {
		var locked *domain.LockedItemError
		if errors.As(err, &locked) {
			fmt.Printf("item is locked, %s\n", locked.Countdown)
			return nil
		}
		return err
	}
	sh.src = src

	if err := sh.session.Play(); err != nil {
		return err
	}
	item, _ := sh.session.Current()
	fmt.Printf("playing %q (%s)\n", item.Title, item.FormattedDuration())
	return nil
}

func (sh *shell) cmdList() {
	pctx := sh.session.Context()
	if pctx == nil {
		fmt.Println("no collection open")
		return
	}
	_, current := sh.session.Current()
	for i, item := range pctx.Items {
		marker := " "
		if i == current {
			marker = ">"
		}
		avail := sh.session.Availability(i)
		state := ""
		if !avail.Available {
			state = " [locked"
			if avail.Countdown != "" {
				state += ", " + avail.Countdown
			}
			state += "]"
		}
		fmt.Printf("%s %2d  %s (%s)%s\n", marker, i, item.Title, item.FormattedDuration(), state)
	}
}

func (sh *shell) cmdSeek(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: seek <seconds>")
	}
	pos, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("bad position %q", args[0])
	}
	return sh.session.Seek(ctx, pos)
}

func (sh *shell) cmdSkip(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: skip <+/-seconds>")
	}
	delta, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("bad delta %q", args[0])
	}
	return sh.session.Skip(ctx, delta)
}

func (sh *shell) cmdRate(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: rate <multiplier>")
	}
	rate, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("bad rate %q", args[0])
	}
	return sh.session.SetRate(rate)
}

func (sh *shell) cmdNext(ctx context.Context) error {
	res, err := sh.session.Advance(ctx)
	if err != nil {
		return err
	}
	switch res.Outcome {
	case playback.OutcomeAdvanced:
		fmt.Printf("playing %q\n", res.Item.Title)
	case playback.OutcomeResolveNext:
		sh.resolveNext(ctx, res.Index)
	case playback.OutcomeExhausted:
		fmt.Println("no further unlocked items")
	}
	return nil
}

func (sh *shell) cmdGoTo(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: goto <index>")
	}
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("bad index %q", args[0])
	}
	if err := sh.session.GoTo(ctx, index); err != nil {
		var locked *domain.LockedItemError
		if errors.As(err, &locked) {
			fmt.Printf("item is locked, %s\n", locked.Countdown)
			return nil
		}
		return err
	}
	item, _ := sh.session.Current()
	fmt.Printf("now at %q\n", item.Title)
	return nil
}

func (sh *shell) cmdMark(ctx context.Context, args []string) error {
	item, _ := sh.session.Current()
	if item == nil {
		return domain.ErrNoSession
	}
	label := strings.Join(args, " ")
	pos := int(sh.session.Position())
	b, err := sh.bookmarks.Add(ctx, sh.cfg.Learner.ID, item.ID, pos, label)
	if err != nil {
		return err
	}
	fmt.Printf("bookmark %s at %ds\n", b.ID, b.PositionSeconds)
	return nil
}

func (sh *shell) cmdMarks(ctx context.Context) error {
	item, _ := sh.session.Current()
	if item == nil {
		return domain.ErrNoSession
	}
	marks, err := sh.bookmarks.List(ctx, sh.cfg.Learner.ID, item.ID)
	if err != nil {
		return err
	}
	if len(marks) == 0 {
		fmt.Println("no bookmarks")
		return nil
	}
	for _, b := range marks {
		fmt.Printf("  %s  %4ds  %s\n", b.ID, b.PositionSeconds, b.Label)
	}
	return nil
}

func (sh *shell) cmdUnmark(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: unmark <id>")
	}
	return sh.bookmarks.Remove(ctx, sh.cfg.Learner.ID, args[0])
}

func (sh *shell) cmdStatus() {
	item, index := sh.session.Current()
	if item == nil {
		fmt.Println("idle")
		return
	}
	fmt.Printf("%s  #%d %q  %s / %s  rate %.2gx\n",
		sh.session.State(), index, item.Title,
		formatClock(sh.session.Position()), formatClock(sh.session.Duration()),
		sh.session.Rate())
}

func (sh *shell) cmdRefresh(ctx context.Context) error {
	pctx := sh.session.Context()
	if pctx == nil {
		return fmt.Errorf("no collection open")
	}
	refreshed, err := sh.catalog.Refresh(ctx, sh.cfg.Learner.ID, sh.src)
	if err != nil {
		return err
	}
	_, index := sh.session.Current()
	if index >= len(refreshed.Items) {
		index = 0
	}
	return sh.session.Seed(ctx, refreshed, index)
}

func formatClock(seconds float64) string {
	total := int(seconds)
	if total >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", total/3600, (total%3600)/60, total%60)
	}
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// consoleObserver prints session lifecycle events to the terminal
type consoleObserver struct{}

func (consoleObserver) OnTransport(domain.TransportSnapshot) {}

func (consoleObserver) OnItemCompleted(item *domain.ContentItem) {
	fmt.Printf("\ncompleted %q\n", item.Title)
}

func (consoleObserver) OnAdvanced(item *domain.ContentItem, index int) {
	fmt.Printf("now playing #%d %q\n", index, item.Title)
}

func (consoleObserver) OnResolveNext(*domain.ContentItem, int) {}

func (consoleObserver) OnSessionExhausted() {
	fmt.Println("\nend of unlocked content")
}
