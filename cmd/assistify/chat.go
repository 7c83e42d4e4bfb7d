package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"assistify-backend/internal/app"
	"assistify-backend/internal/background"
	"assistify-backend/internal/search"
	"assistify-backend/internal/store"
	"assistify-backend/internal/summarize"
)

const chatHelp = `Commands:
  /search <query>     Wikipedia, web and YouTube in the background
  /summarize <file>   summarize a PDF or plain-text document
  /listen <file>      transcribe an audio clip and answer it
  /voice              toggle spoken replies
  /new                start a new chat
  /quit               leave`

// spokenSummaryRunes caps how much of a search summary is read aloud.
const spokenSummaryRunes = 200

// console serializes writes from the prompt loop and background tasks.
type console struct {
	mu  sync.Mutex
	out io.Writer
}

func (c *console) say(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format+"\n", args...)
}

func runChat(ctx context.Context, a *app.App, in io.Reader, out io.Writer) error {
	con := &console{out: out}
	sess := a.Sessions.Session(uuid.NewString())
	runner := background.NewRunner(ctx)
	defer runner.Wait()

	con.say("Assistify ready. Type /help for commands.")
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch strings.ToLower(cmd) {
		case "/quit", "/exit":
			return nil
		case "/help":
			con.say(chatHelp)
		case "/new":
			sess.Reset()
			con.say("Started a new chat.")
		case "/voice":
			if sess.ToggleVoice() {
				con.say("🔊 Voice on.")
			} else {
				con.say("🔇 Voice off.")
			}
		case "/search":
			if arg == "" {
				con.say("Usage: /search <query>")
				continue
			}
			con.say("🔎 Searching for %q...", arg)
			runner.Go("search", func(ctx context.Context) (string, error) {
				rep := a.Search.Lookup(ctx, arg)
				a.Voice.Speak(sess, truncateRunes(rep.Summary, spokenSummaryRunes))
				return formatReport(rep), nil
			}, func(msg string) { con.say("%s", msg) })
		case "/summarize":
			if arg == "" {
				con.say("Usage: /summarize <file>")
				continue
			}
			con.say("📄 Summarizing %s...", arg)
			runner.Go("summarize", func(ctx context.Context) (string, error) {
				data, err := os.ReadFile(arg)
				if err != nil {
					return "", err
				}
				out, err := a.SummarizeDocument(ctx, filepath.Base(arg), data, summarize.Options{})
				if err != nil {
					return "", err
				}
				a.Voice.Speak(sess, truncateRunes(out, spokenSummaryRunes))
				return "🤖 Summary:\n" + out, nil
			}, func(msg string) { con.say("%s", msg) })
		case "/listen":
			answerClip(ctx, a, sess, con, arg)
		default:
			reply := a.Chat(sess, line)
			con.say("Assistify Bot: %s", reply.Text)
			a.Voice.Speak(sess, reply.Text)
		}
	}
	return scanner.Err()
}

func answerClip(ctx context.Context, a *app.App, sess *store.Session, con *console, path string) {
	f, err := os.Open(path)
	if err != nil {
		con.say("❌ %v", err)
		return
	}
	defer f.Close()
	text, ok := a.Voice.Listen(ctx, f, path)
	if !ok {
		con.say("Sorry, I didn't catch that.")
		return
	}
	con.say("You said: %s", text)
	reply := a.Chat(sess, text)
	con.say("Assistify Bot: %s", reply.Text)
	a.Voice.Speak(sess, reply.Text)
}

func formatReport(rep search.Report) string {
	var sb strings.Builder
	sb.WriteString("📘 Wikipedia summary:\n")
	sb.WriteString(rep.Summary)
	sb.WriteString("\n\n")

	if rep.Web.Found() {
		fmt.Fprintf(&sb, "🌐 Web search results (from %s):\n", rep.Web.Source)
		writeResults(&sb, rep.Web.Results)
	} else {
		sb.WriteString("🌐 Web search - No results found.\n")
		fmt.Fprintf(&sb, "🔗 %s\n", rep.Manual[0].URL)
	}
	sb.WriteString("\n")

	if len(rep.Videos) > 0 {
		sb.WriteString("🎬 YouTube videos:\n")
		writeResults(&sb, rep.Videos)
	} else {
		sb.WriteString("🎬 YouTube - No videos found.\n")
		fmt.Fprintf(&sb, "🔗 %s\n", rep.Manual[1].URL)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func writeResults(sb *strings.Builder, results []search.Result) {
	for i, r := range results {
		fmt.Fprintf(sb, "%d. %s\n   %s\n", i+1, r.Title, r.URL)
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
