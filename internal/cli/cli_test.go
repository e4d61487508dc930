package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/igor-ruivo/metin2-events/internal/config"
	"github.com/igor-ruivo/metin2-events/internal/discord"
	"github.com/igor-ruivo/metin2-events/internal/notifier"
	"github.com/igor-ruivo/metin2-events/internal/schedule"
	"github.com/igor-ruivo/metin2-events/internal/scraper"
	"github.com/igor-ruivo/metin2-events/internal/storage"
)

type fakeSource struct {
	now       time.Time
	schedules map[schedule.Period]*schedule.MonthlySchedule
	errs      map[schedule.Period]error

	mu    sync.Mutex
	calls []schedule.Period
}

func (f *fakeSource) GetSchedule(ctx context.Context, p schedule.Period) (*schedule.MonthlySchedule, error) {
	f.mu.Lock()
	f.calls = append(f.calls, p)
	f.mu.Unlock()

	if err, ok := f.errs[p]; ok {
		return nil, err
	}
	if s, ok := f.schedules[p]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: nothing for %s", scraper.ErrScheduleNotFound, p)
}

func (f *fakeSource) Now() time.Time { return f.now }

type fakeSender struct {
	payloads []discord.Payload
	err      error
}

func (f *fakeSender) Send(ctx context.Context, p discord.Payload) error {
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, p)
	return nil
}

func augustSchedule() *schedule.MonthlySchedule {
	return &schedule.MonthlySchedule{
		ServerLabel: "Tigerghost",
		Month:       7,
		Year:        2025,
		ThreadTitle: "[Tigerghost] Eventos Metin2 – agosto 2025",
		Days: []schedule.DailyEvent{
			{Day: 13, Event1: "Lua", Event2: "Pesca", Extra: "Captura de Carpas"},
			{Day: 15, Event1: "Evento X"},
		},
	}
}

// newTestApp wires fakes so setup never reads configuration
func newTestApp(t *testing.T, now time.Time) (*app, *fakeSource, *fakeSender, *bytes.Buffer) {
	t.Helper()

	store, err := storage.New(t.TempDir())
	if err != nil {
		t.Fatalf("storage.New() error: %v", err)
	}

	aug := augustSchedule()
	source := &fakeSource{
		now: now,
		schedules: map[schedule.Period]*schedule.MonthlySchedule{
			schedule.Today: aug,
			schedule.Week:  aug,
			schedule.Month: aug,
		},
		errs: map[schedule.Period]error{},
	}
	sender := &fakeSender{}
	out := &bytes.Buffer{}

	cfg := config.DefaultConfig()
	cfg.Discord.Mention = "<@&42>"

	a := &app{
		cfg:    cfg,
		loc:    time.UTC,
		source: source,
		store:  store,
		sender: sender,
		out:    out,
	}
	return a, source, sender, out
}

func run(t *testing.T, a *app, args ...string) error {
	t.Helper()
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	return cmd.Execute()
}

var wednesday = time.Date(2025, time.August, 13, 14, 20, 0, 0, time.UTC)

func TestShow_Text(t *testing.T) {
	a, _, _, out := newTestApp(t, wednesday)

	if err := run(t, a, "show", "--period", "today"); err != nil {
		t.Fatalf("show error: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"📅 Eventos Metin2 Tigerghost - Hoje",
		"**Hoje, 13/8**",
		"• **Evento 1**: Lua",
		"• **Evento Adicional**: Captura de Carpas *",
		"Atualizado a 13/08/2025, 14:20:00",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestShow_JSON(t *testing.T) {
	a, _, _, out := newTestApp(t, wednesday)

	if err := run(t, a, "show", "--period", "month", "--format", "json"); err != nil {
		t.Fatalf("show error: %v", err)
	}

	var result OutputResult
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if !result.Available || result.Period != schedule.Month {
		t.Errorf("result = %+v", result)
	}
	if result.Schedule == nil || len(result.Schedule.Days) != 2 {
		t.Errorf("schedule = %+v", result.Schedule)
	}
	if len(result.Embeds) != 1 || result.Embeds[0].Title != "📅 Eventos Metin2 Tigerghost - Este Mês" {
		t.Errorf("embeds = %+v", result.Embeds)
	}
}

func TestShow_NothingScheduled(t *testing.T) {
	a, _, _, out := newTestApp(t, wednesday)

	if err := run(t, a, "show", "--period", "next"); err != nil {
		t.Fatalf("absence should not be an error: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "❌ Não há nada agendado (Próximo Mês)." {
		t.Errorf("output = %q", got)
	}
}

func TestShow_FetchFailure(t *testing.T) {
	a, source, _, _ := newTestApp(t, wednesday)
	source.errs[schedule.Month] = fmt.Errorf("%w: boom", scraper.ErrFetch)

	err := run(t, a, "show")
	if !errors.Is(err, scraper.ErrFetch) {
		t.Errorf("show error = %v, want ErrFetch", err)
	}
}

func TestShow_InvalidFormat(t *testing.T) {
	a, _, _, _ := newTestApp(t, wednesday)
	if err := run(t, a, "show", "--format", "xml"); err == nil {
		t.Error("show should reject an unknown format")
	}
}

func TestRefresh(t *testing.T) {
	a, source, _, out := newTestApp(t, wednesday)
	source.errs[schedule.Week] = fmt.Errorf("%w: status 503", scraper.ErrFetch)

	if err := run(t, a, "refresh"); err != nil {
		t.Fatalf("refresh error: %v", err)
	}
	if !strings.Contains(out.String(), "Refreshed 4 periods (2 with a schedule).") {
		t.Errorf("output = %q", out.String())
	}
	if len(source.calls) != 4 {
		t.Errorf("GetSchedule called %d times, want 4", len(source.calls))
	}

	tests := map[schedule.Period]bool{
		schedule.Today: false,
		schedule.Week:  true, // transport failure
		schedule.Month: false,
		schedule.Next:  true, // not found
	}
	for p, wantUnavailable := range tests {
		embeds, err := a.store.Load(p)
		if err != nil {
			t.Fatalf("Load(%s) error: %v", p, err)
		}
		if discord.IsUnavailable(embeds) != wantUnavailable {
			t.Errorf("%s unavailable = %v, want %v", p, discord.IsUnavailable(embeds), wantUnavailable)
		}
	}
}

// barrierSource blocks every GetSchedule until all periods have been requested
type barrierSource struct {
	*fakeSource
	arrived sync.WaitGroup
}

func (b *barrierSource) GetSchedule(ctx context.Context, p schedule.Period) (*schedule.MonthlySchedule, error) {
	b.arrived.Done()
	done := make(chan struct{})
	go func() {
		b.arrived.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("%w: period %s was built alone", scraper.ErrFetch, p)
	}
	return b.fakeSource.GetSchedule(ctx, p)
}

func TestRefresh_BuildsPeriodsConcurrently(t *testing.T) {
	a, source, _, _ := newTestApp(t, wednesday)
	barrier := &barrierSource{fakeSource: source}
	barrier.arrived.Add(len(schedule.Periods()))
	a.source = barrier

	available, err := a.refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh error: %v", err)
	}
	if available != 3 {
		t.Errorf("available = %d, want 3 (today, week and month)", available)
	}
}

func TestCached(t *testing.T) {
	a, source, _, out := newTestApp(t, wednesday)

	if _, err := a.refresh(context.Background()); err != nil {
		t.Fatalf("refresh error: %v", err)
	}
	source.calls = nil

	if err := run(t, a, "cached", "--period", "today"); err != nil {
		t.Fatalf("cached error: %v", err)
	}
	if !strings.Contains(out.String(), "📅 Eventos Metin2 Tigerghost - Hoje") {
		t.Errorf("output = %q", out.String())
	}
	if len(source.calls) != 0 {
		t.Error("cached should not scrape when the period is stored")
	}

	out.Reset()
	if err := run(t, a, "cached", "--period", "next"); err != nil {
		t.Fatalf("cached error: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "❌ Não há nada agendado (Próximo Mês)." {
		t.Errorf("output = %q", got)
	}
}

func TestCached_FallsBackToLive(t *testing.T) {
	a, source, _, out := newTestApp(t, wednesday)

	if err := run(t, a, "cached", "--period", "week"); err != nil {
		t.Fatalf("cached error: %v", err)
	}
	if len(source.calls) != 1 || source.calls[0] != schedule.Week {
		t.Errorf("calls = %v, want one live week build", source.calls)
	}
	if !strings.Contains(out.String(), "Esta Semana") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRemind(t *testing.T) {
	a, _, sender, out := newTestApp(t, wednesday)

	if err := run(t, a, "remind"); err != nil {
		t.Fatalf("remind error: %v", err)
	}
	if len(sender.payloads) != 1 {
		t.Fatalf("sent %d payloads, want 1", len(sender.payloads))
	}
	p := sender.payloads[0]
	if p.Content != "<@&42>" {
		t.Errorf("content = %q, want the mention", p.Content)
	}
	if len(p.Embeds) != 1 || !strings.Contains(p.Embeds[0].Description, "Começa dentro de 40 minutos") {
		t.Errorf("embeds = %+v", p.Embeds)
	}
	if !strings.Contains(out.String(), "Sent 1 reminder(s).") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRemind_NothingDue(t *testing.T) {
	a, source, sender, _ := newTestApp(t, time.Date(2025, time.August, 13, 16, 0, 0, 0, time.UTC))

	if _, err := a.remind(context.Background()); err != nil {
		t.Fatalf("remind error: %v", err)
	}
	delete(source.schedules, schedule.Today)
	if _, err := a.remind(context.Background()); err != nil {
		t.Fatalf("remind without schedule error: %v", err)
	}
	if len(sender.payloads) != 0 {
		t.Errorf("sent %d payloads, want none", len(sender.payloads))
	}
}

func TestRemind_NoWebhook(t *testing.T) {
	a, _, _, _ := newTestApp(t, wednesday)
	a.sender = nil

	if _, err := a.remind(context.Background()); !errors.Is(err, errNoWebhook) {
		t.Errorf("remind error = %v, want errNoWebhook", err)
	}
}

func TestMonthly(t *testing.T) {
	a, source, sender, _ := newTestApp(t, wednesday)

	if err := run(t, a, "monthly"); err != nil {
		t.Fatalf("monthly error: %v", err)
	}
	if len(sender.payloads) != 1 || sender.payloads[0].Content != "<@&42>" {
		t.Fatalf("payloads = %+v", sender.payloads)
	}
	if title := sender.payloads[0].Embeds[0].Title; title != "📅 Eventos Metin2 Tigerghost - Este Mês" {
		t.Errorf("title = %q", title)
	}

	delete(source.schedules, schedule.Month)
	if err := a.monthly(context.Background()); !errors.Is(err, scraper.ErrScheduleNotFound) {
		t.Errorf("monthly error = %v, want ErrScheduleNotFound", err)
	}
}

func TestMonthly_SendFailure(t *testing.T) {
	a, _, sender, _ := newTestApp(t, wednesday)
	sender.err = errors.New("webhook error (status 500)")

	if err := a.monthly(context.Background()); err == nil || !strings.Contains(err.Error(), "status 500") {
		t.Errorf("monthly error = %v", err)
	}
}

func TestICS(t *testing.T) {
	a, _, _, out := newTestApp(t, wednesday)
	path := filepath.Join(t.TempDir(), "agosto.ics")

	if err := run(t, a, "ics", "--output", path); err != nil {
		t.Fatalf("ics error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("calendar not written: %v", err)
	}
	if !strings.Contains(string(data), "BEGIN:VCALENDAR") || !strings.Contains(string(data), "2025-08-13-evento1@metin2-events") {
		t.Errorf("calendar = %s", data)
	}
	if !strings.Contains(out.String(), "Wrote "+path) {
		t.Errorf("output = %q", out.String())
	}

	out.Reset()
	if err := run(t, a, "ics"); err != nil {
		t.Fatalf("ics error: %v", err)
	}
	if !strings.HasPrefix(out.String(), "BEGIN:VCALENDAR") {
		t.Errorf("stdout export = %q", out.String())
	}
}

func TestScheduler(t *testing.T) {
	a, _, _, _ := newTestApp(t, wednesday)

	c, err := a.scheduler(context.Background())
	if err != nil {
		t.Fatalf("scheduler error: %v", err)
	}
	if got := len(c.Entries()); got != 3 {
		t.Errorf("entries = %d, want 3", got)
	}

	a.sender = nil
	c, err = a.scheduler(context.Background())
	if err != nil {
		t.Fatalf("scheduler error: %v", err)
	}
	if got := len(c.Entries()); got != 1 {
		t.Errorf("entries without webhook = %d, want only refresh", got)
	}

	a.cfg.Cron.Refresh = "not a spec"
	if _, err := a.scheduler(context.Background()); err == nil {
		t.Error("scheduler should reject an invalid spec")
	}
}

func TestServe_StopsOnCancel(t *testing.T) {
	a, source, _, _ := newTestApp(t, wednesday)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.serve(ctx) }()

	// the initial refresh builds every period before the scheduler starts
	deadline := time.After(5 * time.Second)
	for {
		source.mu.Lock()
		n := len(source.calls)
		source.mu.Unlock()
		if n >= 4 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("initial refresh did not run")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
}

func TestKVFields(t *testing.T) {
	f := kvFields([]interface{}{"entry", 1, "next", "soon", "dangling"})
	if len(f) != 2 || f["entry"] != 1 || f["next"] != "soon" {
		t.Errorf("kvFields() = %v", f)
	}
	if kvFields(nil) != nil {
		t.Error("kvFields(nil) should be nil")
	}
}

func TestForumFrom(t *testing.T) {
	f, err := forumFrom(scraper.PrimaryForum(), config.ForumConfig{
		URL:         "https://board.example.com/pt/",
		TitleFilter: "(?i)teutonia",
	})
	if err != nil {
		t.Fatalf("forumFrom() error: %v", err)
	}
	if f.IndexURL != "https://board.example.com/pt/" || f.ThreadSelector != scraper.DefaultThreadSelector {
		t.Errorf("forum = %+v", f)
	}
	if !f.TitleFilter.MatchString("Eventos Teutonia") {
		t.Error("title filter not applied")
	}

	if _, err := forumFrom(scraper.PrimaryForum(), config.ForumConfig{TitleFilter: "("}); err == nil {
		t.Error("forumFrom() should reject an invalid filter")
	}
}

func TestSetup(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("METIN2_EVENTS_DATA_DIR", dataDir)
	t.Setenv("DISCORD_WEBHOOK_URL", "")
	t.Setenv("TZ", "")
	t.Setenv("LOG_LEVEL", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "timezone: Europe/Lisbon\nstorage:\n  backend: bolt\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	a := &app{configPath: path, dryRun: true, out: &bytes.Buffer{}}
	if err := a.setup(); err != nil {
		t.Fatalf("setup() error: %v", err)
	}

	if a.location().String() != "Europe/Lisbon" {
		t.Errorf("location = %s", a.location())
	}
	if _, ok := a.source.(*scraper.Scraper); !ok {
		t.Errorf("source = %T, want *scraper.Scraper", a.source)
	}
	if _, ok := a.store.(*storage.BoltStore); !ok {
		t.Errorf("store = %T, want *storage.BoltStore", a.store)
	}
	if _, ok := a.sender.(*notifier.DryRunNotifier); !ok {
		t.Errorf("sender = %T, want dry-run notifier", a.sender)
	}
}

func TestSetup_InvalidConfig(t *testing.T) {
	t.Setenv("TZ", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  backend: redis\n"), 0600); err != nil {
		t.Fatal(err)
	}

	a := &app{configPath: path, out: &bytes.Buffer{}}
	if err := a.setup(); err == nil {
		t.Error("setup() should reject an invalid config")
	}
}
