package notes

import (
	"context"
	"sync"
	"time"

	"notetaker/internal/logging"
	"notetaker/internal/types"
)

const (
	DisplayDateLayout = "Mon Jan 02 2006"
	DisplayTimeLayout = "3:04:05 PM"
)

// NoteView is a note plus its modified time rendered in the viewer's zone.
// Views are recomputed on every refresh, so a zone change shows up on the
// next refresh rather than immediately.
type NoteView struct {
	Note        *types.Note
	DisplayDate string
	DisplayTime string
}

// Snapshot is one published state of the cached list. Err is the last
// refresh failure; Notes still holds the last successful result.
type Snapshot struct {
	Notes       []NoteView
	Revision    uint64
	RefreshedAt time.Time
	Err         error
}

func (s Snapshot) Len() int {
	return len(s.Notes)
}

// ListController caches the result of one list query and pushes a new
// Snapshot to its single subscriber after every refresh.
type ListController struct {
	service  NoteService
	query    Query
	notifier Notifier
	logger   logging.Logger
	location *time.Location
	now      func() time.Time

	mu          sync.Mutex
	snapshot    Snapshot
	hasSnapshot bool
	issued      uint64
	applied     uint64
	sub         chan Snapshot
	closed      bool

	background sync.WaitGroup
}

func NewListController(service NoteService, query Query, notifier Notifier, opts ...Option) *ListController {
	o := resolveOptions(opts)
	return &ListController{
		service:  service,
		query:    query,
		notifier: notifierOrNop(notifier),
		logger:   o.logger,
		location: o.location,
		now:      o.now,
	}
}

func (c *ListController) Query() Query {
	return c.query
}

// Subscribe returns the controller's only subscription. Delivery is
// latest-wins: a reader that falls behind sees the newest snapshot, not a
// backlog. The channel is closed by Close.
func (c *ListController) Subscribe() (<-chan Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrListClosed
	}
	if c.sub != nil {
		return nil, ErrAlreadySubscribed
	}
	c.sub = make(chan Snapshot, 1)
	if c.hasSnapshot {
		c.sub <- c.snapshot
	}
	return c.sub, nil
}

// Refresh re-executes the query and publishes the result. Failures are
// reported to the notifier and published with the previous notes intact.
// A result that lands after a later-issued refresh has been applied is
// dropped.
func (c *ListController) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrListClosed
	}
	c.issued++
	seq := c.issued
	c.mu.Unlock()

	items, err := c.service.ListNotes(ctx, c.query)

	c.mu.Lock()
	if c.closed || seq < c.applied {
		c.mu.Unlock()
		c.logger.Debug("notes_refresh_stale", logging.F("seq", seq))
		return err
	}
	c.applied = seq
	next := Snapshot{
		Notes:       c.snapshot.Notes,
		Revision:    c.snapshot.Revision + 1,
		RefreshedAt: c.snapshot.RefreshedAt,
	}
	if err != nil {
		next.Err = err
	} else {
		next.Notes = c.viewsFor(items)
		next.RefreshedAt = c.now()
	}
	c.snapshot = next
	c.hasSnapshot = true
	c.publishLocked(next)
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("notes_refresh_failed", logging.F("record_id", c.query.RecordID), logging.Err(err))
		c.notifier.Notify(userMessage(err), SeverityError)
		return err
	}
	c.logger.Debug("notes_refreshed", logging.F("record_id", c.query.RecordID), logging.F("count", len(next.Notes)))
	return nil
}

// RefreshInBackground starts a Refresh and returns without waiting for it.
// The refresh outlives ctx's cancellation; its failures reach the notifier
// and the published snapshot like any other refresh.
func (c *ListController) RefreshInBackground(ctx context.Context) {
	c.background.Add(1)
	go func() {
		defer c.background.Done()
		_ = c.Refresh(context.WithoutCancel(ctx))
	}()
}

// Wait blocks until every refresh started by RefreshInBackground has
// finished.
func (c *ListController) Wait() {
	c.background.Wait()
}

func (c *ListController) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.snapshot
	out.Notes = append([]NoteView(nil), c.snapshot.Notes...)
	return out
}

// Find looks a note up in the cached list.
func (c *ListController) Find(id string) (*types.Note, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, view := range c.snapshot.Notes {
		if view.Note != nil && view.Note.ID == id {
			return view.Note.Clone(), true
		}
	}
	return nil, false
}

func (c *ListController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.sub != nil {
		close(c.sub)
	}
}

// publishLocked replaces any undelivered snapshot with s. Only holders of
// c.mu send, so the send after draining cannot block.
func (c *ListController) publishLocked(s Snapshot) {
	if c.sub == nil {
		return
	}
	select {
	case <-c.sub:
	default:
	}
	c.sub <- s
}

func (c *ListController) viewsFor(items []*types.Note) []NoteView {
	views := make([]NoteView, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		views = append(views, FormatNote(item, c.location))
	}
	return views
}

// FormatNote renders a note's modified time in loc.
func FormatNote(note *types.Note, loc *time.Location) NoteView {
	view := NoteView{Note: note.Clone()}
	if note.UpdatedAt.IsZero() {
		return view
	}
	if loc == nil {
		loc = time.Local
	}
	at := note.UpdatedAt.In(loc)
	view.DisplayDate = at.Format(DisplayDateLayout)
	view.DisplayTime = at.Format(DisplayTimeLayout)
	return view
}
