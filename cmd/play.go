package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/zoynulabedin/snowlightv2-sub000/config"
	"github.com/zoynulabedin/snowlightv2-sub000/logger"
	"github.com/zoynulabedin/snowlightv2-sub000/media"
	"github.com/zoynulabedin/snowlightv2-sub000/model"
	"github.com/zoynulabedin/snowlightv2-sub000/player"
)

var (
	playWatch  bool
	playRepeat string
)

var playCmd = &cobra.Command{
	Use:   "play <dir>",
	Short: "Play a local music directory from an interactive prompt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		initLogger(cfg, true)
		defer logger.Sync()

		dir := args[0]
		library, err := media.Scan(dir)
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", dir, err)
		}
		if !media.AudioAvailable {
			fmt.Println("this build has no audio output; the transport runs silently")
		}

		element := media.NewBeepElement()
		defer element.Close()

		session := player.NewSession()
		audio := player.NewController(session, element, model.SurfaceAudio,
			player.WithRestartThreshold(cfg.RestartThreshold),
			player.WithInitialVolume(cfg.DefaultVolume),
			player.WithRepeatMode(model.ParseRepeatMode(playRepeat)),
		)
		defer audio.Close()

		rl, err := readline.NewEx(&readline.Config{
			Prompt: ">> ",
			AutoComplete: readline.NewPrefixCompleter(
				lo.Map(consoleCommands, func(c string, _ int) readline.PrefixCompleterInterface {
					return readline.PcItem(c)
				})...,
			),
		})
		if err != nil {
			return err
		}
		defer rl.Close()

		c := newConsole(session, audio, library, rl.Stdout())
		c.printLibrary()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		if playWatch {
			known := lo.Map(library, func(t model.Track, _ int) string { return t.AudioURL })
			go func() {
				if err := media.Watch(ctx, dir, known, c.discovered); err != nil {
					logger.Error("watch stopped", logger.ErrorField(err))
				}
			}()
		}

		for {
			line, err := rl.Readline()
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if err != nil {
				return nil
			}
			if c.exec(line) {
				return nil
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().StringVarP(&playRepeat, "repeat", "r", "off", "starting repeat mode: off, one or all")
	playCmd.Flags().BoolVarP(&playWatch, "watch", "w", false, "queue audio files added to the directory while playing")
}

var consoleCommands = []string{
	"play", "pause", "toggle", "next", "prev", "seek", "vol", "mute",
	"shuffle", "repeat", "queue", "add", "rm", "clear", "status", "help", "quit",
}

// console runs prompt commands against a session and its audio controller.
type console struct {
	session *player.Session
	audio   *player.Controller
	out     io.Writer

	mu      sync.Mutex
	library []model.Track
}

func newConsole(session *player.Session, audio *player.Controller, library []model.Track, out io.Writer) *console {
	return &console{session: session, audio: audio, library: library, out: out}
}

// discovered adds a track found while watching to the library and queue.
func (c *console) discovered(t model.Track) {
	c.mu.Lock()
	c.library = append(c.library, t)
	c.mu.Unlock()
	c.session.AddToQueue(t)
	fmt.Fprintf(c.out, "added %s (%s)\n", t.Title, t.ID)
}

// findTrack looks id up in the queue, then the library. A number is a
// 1-based library position.
func (c *console) findTrack(ref string) (model.Track, bool) {
	if t, ok := lo.Find(c.session.State().Queue, func(t model.Track) bool { return t.ID == ref }); ok {
		return t, true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(c.library) {
		return c.library[n-1], true
	}
	return lo.Find(c.library, func(t model.Track) bool { return t.ID == ref })
}

// exec runs one command line and reports whether the prompt should exit.
func (c *console) exec(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := fields[0], fields[1:]
	arg := strings.Join(args, " ")

	switch cmd {
	case "play":
		c.play(arg)
	case "pause":
		if c.audio.State().IsPlaying {
			c.audio.TogglePlay()
		}
	case "toggle":
		c.audio.TogglePlay()
	case "next":
		c.audio.Next()
	case "prev":
		c.audio.Previous()
	case "seek", "vol":
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			fmt.Fprintf(c.out, "usage: %s <number>\n", cmd)
			return false
		}
		if cmd == "seek" {
			c.audio.SeekTo(v)
		} else {
			c.audio.SetVolume(v)
		}
	case "mute":
		c.audio.ToggleMute()
	case "shuffle":
		c.audio.ToggleShuffle()
		fmt.Fprintf(c.out, "shuffle %v\n", c.audio.State().IsShuffled)
	case "repeat":
		c.audio.ToggleRepeat()
		fmt.Fprintf(c.out, "repeat %s\n", c.audio.State().RepeatMode)
	case "queue":
		c.printQueue()
	case "add":
		c.add(arg)
	case "rm":
		if arg == "" {
			fmt.Fprintln(c.out, "usage: rm <id>")
			return false
		}
		c.session.RemoveFromQueue(arg)
	case "clear":
		c.session.ClearQueue()
	case "status":
		c.printStatus()
	case "help":
		fmt.Fprintf(c.out, "commands: %s\n", strings.Join(consoleCommands, ", "))
	case "quit", "exit":
		return true
	default:
		fmt.Fprintf(c.out, "unknown command %q, try help\n", cmd)
	}
	return false
}

func (c *console) play(ref string) {
	if ref != "" {
		t, ok := c.findTrack(ref)
		if !ok {
			fmt.Fprintf(c.out, "no track %q\n", ref)
			return
		}
		c.session.PlayTrack(t)
		return
	}

	st := c.session.State()
	if st.CurrentTrack != nil {
		if !c.audio.State().IsPlaying {
			c.audio.TogglePlay()
		}
		return
	}
	if len(st.Queue) > 0 {
		c.session.PlayTrack(st.Queue[0])
		return
	}

	c.mu.Lock()
	library := append([]model.Track(nil), c.library...)
	c.mu.Unlock()
	if len(library) == 0 {
		fmt.Fprintln(c.out, "library is empty")
		return
	}
	c.session.PlayTrackWithQueue(library[0], library)
}

func (c *console) add(ref string) {
	if ref == "" {
		fmt.Fprintln(c.out, "usage: add <path|id>")
		return
	}
	t, ok := c.findTrack(ref)
	if !ok {
		var err error
		if !media.IsAudioFile(ref) {
			fmt.Fprintf(c.out, "not an audio file: %s\n", ref)
			return
		}
		if t, err = media.ReadTrack(ref); err != nil {
			fmt.Fprintf(c.out, "cannot add %s: %v\n", ref, err)
			return
		}
	}
	c.session.AddToQueue(t)
}

func (c *console) printLibrary() {
	c.mu.Lock()
	library := append([]model.Track(nil), c.library...)
	c.mu.Unlock()
	renderTracks(c.out, library, "", -1)
}

func (c *console) printQueue() {
	st := c.session.State()
	if len(st.Queue) == 0 {
		fmt.Fprintln(c.out, "queue is empty")
		return
	}
	current := ""
	if st.CurrentTrack != nil {
		current = st.CurrentTrack.ID
	}
	renderTracks(c.out, st.Queue, current, c.audio.State().CurrentIndex)
}

func (c *console) printStatus() {
	st := c.session.State()
	tr := c.audio.State()
	title := "-"
	if st.CurrentTrack != nil {
		title = fmt.Sprintf("%s - %s", st.CurrentTrack.Artist, st.CurrentTrack.Title)
	}
	fmt.Fprintf(c.out, "%s [%s] %s / %s  vol %.0f%%%s  repeat %s  shuffle %v\n",
		title, tr.Phase,
		formatSeconds(tr.CurrentTime), formatSeconds(tr.Duration),
		tr.Volume*100, lo.Ternary(tr.IsMuted, " (muted)", ""),
		tr.RepeatMode, tr.IsShuffled)
}

func renderTracks(out io.Writer, tracks []model.Track, currentID string, currentIndex int) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"", "#", "ID", "Title", "Artist", "Album"})
	for i, tr := range tracks {
		marker := ""
		if tr.ID == currentID && (currentIndex < 0 || currentIndex == i) {
			marker = ">"
		}
		t.AppendRow(table.Row{marker, i + 1, tr.ID, tr.Title, tr.Artist, tr.Album})
	}
	t.Render()
}

func formatSeconds(s float64) string {
	if s < 0 {
		s = 0
	}
	n := int(s)
	return fmt.Sprintf("%d:%02d", n/60, n%60)
}
