package hubclient

import (
	"context"
	"sync"
	"time"

	"github.com/aihubhq/aihub/internal/domain"
)

// SearchDebounce is how long search typing must pause before a listing is fetched
const SearchDebounce = 400 * time.Millisecond

// ContactsFetcher runs one contacts listing
type ContactsFetcher func(ctx context.Context, q domain.ContactQuery) ([]*domain.Contact, error)

// ContactsResult is one published listing
type ContactsResult struct {
	Query    domain.ContactQuery
	Contacts []*domain.Contact
	Err      error
}

// ContactsView keeps the current listing parameters and refetches the whole listing
// when any of them change. Search text changes are debounced, everything else
// refetches at once. Starting a fetch cancels the one in flight, and only the
// result of the latest fetch is published.
type ContactsView struct {
	fetch    ContactsFetcher
	publish  func(ContactsResult)
	debounce time.Duration

	// publishMu orders publishing so a stale result can never follow a newer one
	publishMu sync.Mutex
	// beforePublish runs after the latest check, with publishMu held
	beforePublish func()

	mu       sync.Mutex
	query    domain.ContactQuery
	timer    *time.Timer
	cancel   context.CancelFunc
	gen      uint64
	closed   bool
	inflight sync.WaitGroup
}

type ContactsViewOption func(*ContactsView)

func WithDebounce(d time.Duration) ContactsViewOption {
	return func(v *ContactsView) {
		v.debounce = d
	}
}

// NewContactsView starts from the default listing (newest first, search on name).
// publish is called from a fetch goroutine.
func NewContactsView(fetch ContactsFetcher, publish func(ContactsResult), opts ...ContactsViewOption) *ContactsView {
	v := &ContactsView{
		fetch:    fetch,
		publish:  publish,
		debounce: SearchDebounce,
		query:    domain.DefaultContactQuery(""),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// NewClientContactsView lists through the API client
func NewClientContactsView(c *Client, publish func(ContactsResult), opts ...ContactsViewOption) *ContactsView {
	return NewContactsView(c.ListContacts, publish, opts...)
}

// Query returns the current listing parameters
func (v *ContactsView) Query() domain.ContactQuery {
	v.mu.Lock()
	defer v.mu.Unlock()
	q := v.query
	q.Tags = append([]string(nil), v.query.Tags...)
	return q
}

// Refresh fetches the current listing now
func (v *ContactsView) Refresh() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.startFetchLocked()
}

// SetSearch changes the search text. The fetch waits for the debounce window,
// and every call within the window restarts it.
func (v *ContactsView) SetSearch(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}

	v.query.Search = text
	if v.timer != nil {
		v.timer.Stop()
	}
	gen := v.gen
	v.timer = time.AfterFunc(v.debounce, func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		// a newer immediate refetch already covered this text
		if gen != v.gen {
			return
		}
		v.startFetchLocked()
	})
}

func (v *ContactsView) SetSearchField(field domain.ContactSearchField) {
	v.update(func(q *domain.ContactQuery) { q.SearchField = field })
}

// SetTags sets the filter tags. A contact must carry all of them.
func (v *ContactsView) SetTags(tags []string) {
	v.update(func(q *domain.ContactQuery) { q.Tags = domain.NormalizeTags(tags) })
}

// SetSort changes the sort field. An empty order keeps the current direction,
// which starts as descending.
func (v *ContactsView) SetSort(field domain.ContactSortField, order domain.SortOrder) {
	v.update(func(q *domain.ContactQuery) {
		q.SortBy = field
		if order != "" {
			q.SortOrder = order
		} else if q.SortOrder == "" {
			q.SortOrder = domain.SortDesc
		}
	})
}

// ToggleSortOrder flips between ascending and descending
func (v *ContactsView) ToggleSortOrder() {
	v.update(func(q *domain.ContactQuery) {
		if q.SortOrder == domain.SortAsc {
			q.SortOrder = domain.SortDesc
		} else {
			q.SortOrder = domain.SortAsc
		}
	})
}

func (v *ContactsView) update(change func(q *domain.ContactQuery)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	change(&v.query)
	v.startFetchLocked()
}

func (v *ContactsView) startFetchLocked() {
	if v.closed {
		return
	}
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
	if v.cancel != nil {
		v.cancel()
	}

	v.gen++
	gen := v.gen
	ctx, cancel := context.WithCancel(context.Background())
	v.cancel = cancel

	q := v.query
	q.Tags = append([]string(nil), v.query.Tags...)

	v.inflight.Add(1)
	go func() {
		defer v.inflight.Done()
		defer cancel()

		contacts, err := v.fetch(ctx, q)

		v.publishMu.Lock()
		defer v.publishMu.Unlock()

		v.mu.Lock()
		latest := gen == v.gen && !v.closed
		v.mu.Unlock()
		if !latest {
			return
		}
		if v.beforePublish != nil {
			v.beforePublish()
		}
		v.publish(ContactsResult{Query: q, Contacts: contacts, Err: err})
	}()
}

// Close stops the pending debounce, cancels the fetch in flight and waits for it
func (v *ContactsView) Close() {
	v.mu.Lock()
	v.closed = true
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
	if v.cancel != nil {
		v.cancel()
	}
	v.mu.Unlock()

	v.inflight.Wait()
}
