package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	guiderepo "github.com/yungbote/courseguide-backend/internal/data/repos/courseguide"
	"github.com/yungbote/courseguide-backend/internal/data/repos/testutil"
	types "github.com/yungbote/courseguide-backend/internal/domain"
	"github.com/yungbote/courseguide-backend/internal/platform/apierr"
	"github.com/yungbote/courseguide-backend/internal/platform/openrouter"
	"github.com/yungbote/courseguide-backend/internal/realtime"
)

const validReply = "```json\n{\n" +
	`  "summary": "Web development from zero.",` + "\n" +
	`  "roadmap": [{"step": "HTML", "description": "Page structure"}, {"step": "CSS", "description": "Styling"}],` + "\n" +
	`  "suggestedCourses": [` + "\n" +
	`    {"title": "HTML Basics", "description": "Tags and documents", "url": "https://developer.mozilla.org/en-US/docs/Learn/HTML"},` + "\n" +
	`    {"title": "Old CSS", "description": "Insecure link", "url": "http://example.com/css"},` + "\n" +
	"  ],\n}\n```"

type fakeCompleter struct {
	reply string
	err   error
	calls int
	goal  string
}

func (f *fakeCompleter) Complete(_ context.Context, goal string) (string, error) {
	f.calls++
	f.goal = goal
	return f.reply, f.err
}

type recordingFeed struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (r *recordingFeed) Publish(_ context.Context, ev realtime.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingFeed) count(t realtime.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

type countingRepo struct {
	guiderepo.GuideRequestRepo
	creates int
	failGet error
}

func (c *countingRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.GuideRequest) ([]*types.GuideRequest, error) {
	c.creates++
	return c.GuideRequestRepo.Create(ctx, tx, rows)
}

func (c *countingRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID string) ([]*types.GuideRequest, error) {
	if c.failGet != nil {
		return nil, c.failGet
	}
	return c.GuideRequestRepo.GetByUserID(ctx, tx, userID)
}

type guideFixture struct {
	svc       CourseGuideService
	completer *fakeCompleter
	repo      *countingRepo
	feed      *recordingFeed
	clock     time.Time
}

func newGuideFixture(t *testing.T) *guideFixture {
	t.Helper()
	db := testutil.SQLite(t)
	log := testutil.Logger(t)
	f := &guideFixture{
		completer: &fakeCompleter{reply: validReply},
		repo:      &countingRepo{GuideRequestRepo: guiderepo.NewGuideRequestRepo(db, log)},
		feed:      &recordingFeed{},
		clock:     time.Date(2025, 3, 1, 12, 30, 0, 123_000_000, time.UTC),
	}
	svc, err := NewCourseGuideServiceWithDeps(CourseGuideDeps{
		DB:        db,
		Log:       log,
		Completer: f.completer,
		Guides:    f.repo,
		Feed:      f.feed,
		Now:       func() time.Time { return f.clock },
	})
	if err != nil {
		t.Fatalf("NewCourseGuideServiceWithDeps: %v", err)
	}
	f.svc = svc
	return f
}

func wantAPIError(t *testing.T, err error, kind apierr.Kind, status int, msg string) {
	t.Helper()
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("want *apierr.Error, got %T %v", err, err)
	}
	if ae.Kind != kind || ae.Status != status || ae.Message != msg {
		t.Fatalf("api error: want=(%s,%d,%q) got=(%s,%d,%q)", kind, status, msg, ae.Kind, ae.Status, ae.Message)
	}
}

func TestCourseGuideCreatePersistsValidatedRecord(t *testing.T) {
	f := newGuideFixture(t)
	ctx := context.Background()

	rec, err := f.svc.Create(ctx, "I want to learn web development from scratch", "u1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if f.completer.goal != "I want to learn web development from scratch" {
		t.Fatalf("completer goal=%q", f.completer.goal)
	}
	if rec.CreatedAt != "2025-03-01T12:30:00.123Z" || rec.UserID != "u1" {
		t.Fatalf("record=%+v", rec)
	}
	if len(rec.Roadmap) != 2 || rec.Roadmap[0].Step != "HTML" {
		t.Fatalf("roadmap=%+v", rec.Roadmap)
	}
	if len(rec.SuggestedCourses) != 1 || rec.SuggestedCourses[0].URL != "https://developer.mozilla.org/en-US/docs/Learn/HTML" {
		t.Fatalf("courses=%+v", rec.SuggestedCourses)
	}
	if f.feed.count(realtime.EventGuideCreated) != 1 {
		t.Fatalf("expected one created event")
	}

	rows, err := f.svc.List(ctx, "u1")
	if err != nil || len(rows) != 1 || rows[0].Input != rec.Input {
		t.Fatalf("List: err=%v rows=%v", err, rows)
	}
}

func TestCourseGuideCreateRequiresFields(t *testing.T) {
	f := newGuideFixture(t)
	for _, tc := range []struct{ input, user string }{
		{"", "u1"},
		{"learn go", ""},
		{"", ""},
	} {
		_, err := f.svc.Create(context.Background(), tc.input, tc.user)
		wantAPIError(t, err, apierr.KindValidation, http.StatusBadRequest, "Missing input or userId")
	}
	if f.completer.calls != 0 || f.repo.creates != 0 {
		t.Fatalf("validation failures must not call out or persist")
	}
}

func TestCourseGuideCreateKeepsWhitespaceInput(t *testing.T) {
	f := newGuideFixture(t)
	rec, err := f.svc.Create(context.Background(), "   ", "u1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Input != "   " || f.completer.calls != 1 {
		t.Fatalf("input=%q calls=%d", rec.Input, f.completer.calls)
	}
}

func TestCourseGuideCreateStoresStringRoadmap(t *testing.T) {
	f := newGuideFixture(t)
	f.completer.reply = `{"summary":"s","roadmap":["Learn HTML","Learn CSS"],"suggestedCourses":[]}`

	rec, err := f.svc.Create(context.Background(), "learn web", "u1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	rows, err := f.svc.List(context.Background(), "u1")
	if err != nil || len(rows) != 1 {
		t.Fatalf("List: err=%v rows=%v", err, rows)
	}
	if len(rec.Roadmap) != 2 || len(rows[0].Roadmap) != 2 || rows[0].Roadmap[1].Step != "Learn CSS" {
		t.Fatalf("stored roadmap=%+v", rows[0].Roadmap)
	}
}

func TestCourseGuideCreateUpstreamFailure(t *testing.T) {
	f := newGuideFixture(t)
	f.completer.err = &openrouter.UpstreamError{StatusCode: 503, Body: `{"error":"busy"}`}

	_, err := f.svc.Create(context.Background(), "learn go", "u1")
	wantAPIError(t, err, apierr.KindUpstream, http.StatusInternalServerError, "AI provider request failed")
	var ue *openrouter.UpstreamError
	if !errors.As(err, &ue) || ue.StatusCode != 503 {
		t.Fatalf("cause should stay reachable, got %v", err)
	}
	if f.repo.creates != 0 || len(f.feed.events) != 0 {
		t.Fatalf("nothing should be persisted or published")
	}
}

func TestCourseGuideCreateParseAndSchemaFailures(t *testing.T) {
	cases := []struct {
		name  string
		reply string
		kind  apierr.Kind
	}{
		{"not json", "Sorry, I can't help with that.", apierr.KindParse},
		{"empty reply", "", apierr.KindParse},
		{"null roadmap", `{"roadmap": null, "suggestedCourses": []}`, apierr.KindSchema},
		{"courses object", `{"roadmap": [{"step": "a"}], "suggestedCourses": {}}`, apierr.KindSchema},
		{"roadmap without steps", `{"roadmap": [{"description": "d"}], "suggestedCourses": []}`, apierr.KindSchema},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newGuideFixture(t)
			f.completer.reply = tc.reply
			_, err := f.svc.Create(context.Background(), "learn go", "u1")
			wantAPIError(t, err, tc.kind, http.StatusInternalServerError, "Failed to parse AI response")
			if f.repo.creates != 0 {
				t.Fatalf("nothing should be persisted")
			}
		})
	}
}

func TestCourseGuideListOrderingAndEmptyUser(t *testing.T) {
	f := newGuideFixture(t)
	ctx := context.Background()

	for i, goal := range []string{"first", "second", "third"} {
		f.clock = time.Date(2025, 3, 1, 12, 0, i, 0, time.UTC)
		if _, err := f.svc.Create(ctx, goal, "u1"); err != nil {
			t.Fatalf("Create(%s): %v", goal, err)
		}
	}
	if _, err := f.svc.Create(ctx, "other user", "u2"); err != nil {
		t.Fatalf("Create(u2): %v", err)
	}

	rows, err := f.svc.List(ctx, "u1")
	if err != nil || len(rows) != 3 {
		t.Fatalf("List: err=%v len=%d", err, len(rows))
	}
	for i, want := range []string{"third", "second", "first"} {
		if rows[i].Input != want {
			t.Fatalf("rows[%d]=%q want %q", i, rows[i].Input, want)
		}
	}

	empty, err := f.svc.List(ctx, "")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("List(empty): err=%v rows=%v", err, empty)
	}
}

func TestCourseGuideListStoreFailure(t *testing.T) {
	f := newGuideFixture(t)
	f.repo.failGet = errors.New("connection reset")
	_, err := f.svc.List(context.Background(), "u1")
	wantAPIError(t, err, apierr.KindInternal, http.StatusInternalServerError, "Server error")
}

func TestCourseGuideDelete(t *testing.T) {
	f := newGuideFixture(t)
	ctx := context.Background()

	rec, err := f.svc.Create(ctx, "learn go", "u1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = f.svc.Delete(ctx, "u1", "learn go", "")
	wantAPIError(t, err, apierr.KindValidation, http.StatusBadRequest, "Missing fields")

	_, err = f.svc.Delete(ctx, "u1", "learn rust", rec.CreatedAt)
	wantAPIError(t, err, apierr.KindNotFound, http.StatusNotFound, "Entry not found")

	_, err = f.svc.Delete(ctx, "u2", "learn go", rec.CreatedAt)
	wantAPIError(t, err, apierr.KindNotFound, http.StatusNotFound, "Entry not found")

	n, err := f.svc.Delete(ctx, "u1", "learn go", rec.CreatedAt)
	if err != nil || n != 1 {
		t.Fatalf("Delete: n=%d err=%v", n, err)
	}
	if rows, _ := f.svc.List(ctx, "u1"); len(rows) != 0 {
		t.Fatalf("record should be gone, got %d", len(rows))
	}
	if f.feed.count(realtime.EventGuideDeleted) != 1 {
		t.Fatalf("expected one deleted event")
	}

	_, err = f.svc.Delete(ctx, "u1", "learn go", rec.CreatedAt)
	wantAPIError(t, err, apierr.KindNotFound, http.StatusNotFound, "Entry not found")
}

// Two creates in the same millisecond share a tuple; delete removes both.
func TestCourseGuideDeleteRemovesAllDuplicateTuples(t *testing.T) {
	f := newGuideFixture(t)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, "learn go", "u1")
	if err != nil {
		t.Fatalf("Create a: %v", err)
	}
	b, err := f.svc.Create(ctx, "learn go", "u1")
	if err != nil {
		t.Fatalf("Create b: %v", err)
	}
	if a.CreatedAt != b.CreatedAt || a.ID == b.ID || a.ID == uuid.Nil {
		t.Fatalf("expected distinct records with one tuple: %s/%s", a.ID, b.ID)
	}

	n, err := f.svc.Delete(ctx, "u1", "learn go", a.CreatedAt)
	if err != nil || n != 2 {
		t.Fatalf("Delete: n=%d err=%v", n, err)
	}
	if rows, _ := f.svc.List(ctx, "u1"); len(rows) != 0 {
		t.Fatalf("both duplicates should be gone, got %d", len(rows))
	}
	if f.feed.count(realtime.EventGuideDeleted) != 2 {
		t.Fatalf("expected a deleted event per record")
	}
}

func TestNewCourseGuideServiceRequiresDeps(t *testing.T) {
	if _, err := NewCourseGuideServiceWithDeps(CourseGuideDeps{}); err == nil {
		t.Fatalf("expected error without completer")
	}
	if _, err := NewCourseGuideServiceWithDeps(CourseGuideDeps{Completer: &fakeCompleter{}}); err == nil {
		t.Fatalf("expected error without repo")
	}
}
