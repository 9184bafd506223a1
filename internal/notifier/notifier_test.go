package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"TechPulse/internal/model"

	"github.com/shopspring/decimal"
)

func TestFormatSnapshot(t *testing.T) {
	vol := int64(51234567)
	s := &model.Snapshot{
		Quote: &model.Quote{
			Symbol: "AAPL",
			Open:   decimal.RequireFromString("148"),
			High:   decimal.RequireFromString("151.1"),
			Low:    decimal.RequireFromString("147.9"),
			Close:  decimal.RequireFromString("150.25"),
			Volume: &vol,
		},
		Metrics: model.Metrics{
			Change:        decimal.RequireFromString("2.25"),
			PercentChange: decimal.RequireFromString("1.5202702702702703"),
			Localized:     "2023-11-14 04:13 PM CST",
		},
	}
	msg := FormatSnapshot(s)
	for _, want := range []string{"<b>AAPL</b>", "2023-11-14 04:13 PM CST", "Close: $150.25", "Open: $148.00", "Volume: 51234567", "+2.25 (+1.52%)"} {
		if !strings.Contains(msg, want) {
			t.Errorf("snapshot missing %q:\n%s", want, msg)
		}
	}

	s.Quote.Volume = nil
	s.Metrics.Change = decimal.RequireFromString("-3")
	s.Metrics.PercentChange = decimal.RequireFromString("-2")
	msg = FormatSnapshot(s)
	if strings.Contains(msg, "Volume") {
		t.Errorf("volume should be omitted:\n%s", msg)
	}
	if !strings.Contains(msg, "-3.00 (-2.00%)") {
		t.Errorf("negative change not rendered:\n%s", msg)
	}
}

func TestFormatPeers(t *testing.T) {
	p := &model.PeerSet{Selected: "AAPL", SelectedClose: decimal.NewFromInt(150), Peers: []string{"MSFT"}, Candidates: 2}
	msg := FormatPeers(p)
	if !strings.Contains(msg, "MSFT") || !strings.Contains(msg, "1 of 2 candidates") {
		t.Errorf("unexpected peers message:\n%s", msg)
	}

	p.Peers = []string{}
	if msg := FormatPeers(p); !strings.Contains(msg, NoPeersMessage) {
		t.Errorf("expected no-peers message:\n%s", msg)
	}
}

func TestFormatError_Escapes(t *testing.T) {
	msg := FormatError("/quote", errors.New("bad <input>"))
	if !strings.Contains(msg, "bad &lt;input&gt;") {
		t.Errorf("error not escaped: %s", msg)
	}
}

type fakeTelegram struct {
	mu      sync.Mutex
	sent    []map[string]any
	fail    int
	updates string
}

func (f *fakeTelegram) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.HasSuffix(r.URL.Path, "/getUpdates"):
		fmt.Fprint(w, f.updates)
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.fail > 0 {
			f.fail--
			http.Error(w, `{"ok":false}`, http.StatusTooManyRequests)
			return
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.sent = append(f.sent, body)
		fmt.Fprint(w, `{"ok":true}`)
	default:
		http.NotFound(w, r)
	}
}

func TestTelegramBot_Send(t *testing.T) {
	fake := &fakeTelegram{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	bot := NewTelegramBot("token", "")
	bot.APIURL = srv.URL
	if err := bot.Send(context.Background(), 42, "<b>hi</b>"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(fake.sent) != 1 || fake.sent[0]["chat_id"] != float64(42) || fake.sent[0]["parse_mode"] != "HTML" {
		t.Errorf("unexpected payload %v", fake.sent)
	}

	fake.fail = 5
	if err := bot.SendWithRetry(context.Background(), 42, "x", 0); err == nil {
		t.Error("expected error when all attempts fail")
	}
}

func TestTelegramBot_ErrorHidesToken(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	apiURL := srv.URL
	srv.Close()

	const token = "123456:SECRET-BOT-TOKEN"
	bot := NewTelegramBot(token, "")
	bot.APIURL = apiURL
	err := bot.Send(context.Background(), 42, "hi")
	if err == nil || strings.Contains(err.Error(), token) {
		t.Errorf("send error leaks token: %v", err)
	}
	_, err = bot.pollOnce(context.Background(), 0, func(context.Context, string) string { return "" })
	if err == nil || strings.Contains(err.Error(), token) {
		t.Errorf("polling error leaks token: %v", err)
	}
}

func TestTelegramBot_PollOnce(t *testing.T) {
	fake := &fakeTelegram{updates: `{"ok":true,"result":[
		{"update_id":7,"message":{"text":" /quote aapl ","chat":{"id":99}}},
		{"update_id":8,"message":{"text":"","chat":{"id":99}}}
	]}`}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	bot := NewTelegramBot("token", "")
	bot.APIURL = srv.URL

	var got []string
	next, err := bot.pollOnce(context.Background(), 0, func(_ context.Context, cmd string) string {
		got = append(got, cmd)
		return "reply to " + cmd
	})
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if next != 9 {
		t.Errorf("expected next offset 9, got %d", next)
	}
	if len(got) != 1 || got[0] != "/quote aapl" {
		t.Errorf("unexpected commands %v", got)
	}
	if len(fake.sent) != 1 || fake.sent[0]["chat_id"] != float64(99) || fake.sent[0]["text"] != "reply to /quote aapl" {
		t.Errorf("unexpected replies %v", fake.sent)
	}
}
