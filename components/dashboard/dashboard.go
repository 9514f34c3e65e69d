// components/dashboard/dashboard.go
//
// Dashboard component – the signed-in landing page at `/{locale}/`.
//
// Context
// -------
// The page needs the current user, the current space, and four counters.
// User and space come from the identity memo and load concurrently; the
// counters then load concurrently as well.  Each counter degrades to zero
// on error so one slow or broken table never blanks the page.  Anonymous
// callers get a reduced view with a sign-in prompt.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.

package dashboard

import (
	"context"
	"embed"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/pollspace/internal/acl"
	"github.com/yanizio/pollspace/internal/component"
	"github.com/yanizio/pollspace/internal/core"
	"github.com/yanizio/pollspace/internal/feature"
	"github.com/yanizio/pollspace/internal/metrics"
	"github.com/yanizio/pollspace/internal/space"
	"github.com/yanizio/pollspace/internal/user"
	"github.com/yanizio/pollspace/internal/view"
)

//go:embed templates/*.html
var templates embed.FS

var (
	_ component.Component   = (*Component)(nil)
	_ component.Initializer = (*Component)(nil)
)

// Counter reads the dashboard counters.  *space.Store satisfies it.
type Counter interface {
	LivePollCount(ctx context.Context, spaceID string) (int, error)
	UpcomingEventCount(ctx context.Context, spaceID string, now time.Time) (int, error)
	MemberCount(ctx context.Context, spaceID string) (int, error)
	SeatCount(ctx context.Context, spaceID string) (int, error)
}

// Component renders the dashboard.
type Component struct {
	counts Counter
	flags  feature.Flags
	now    func() time.Time
}

func (c *Component) Name() string { return "dashboard" }

func (c *Component) Init(d component.Deps) error {
	c.counts = d.Spaces
	c.flags = d.Flags
	c.now = time.Now
	return nil
}

func (c *Component) Routes(r chi.Router) {
	r.Get("/", c.handleDashboard)
}

func init() {
	view.RegisterFS("dashboard", templates)
	component.Register(&Component{})
}

// Counts are the space counters shown on the page.
type Counts struct {
	LivePolls      int
	UpcomingEvents int
	Members        int
	Seats          int
}

type pageData struct {
	User             *user.User
	Space            *space.DTO
	Counts           Counts
	CanManageBilling bool
	Calendars        bool
}

func (c *Component) handleDashboard(w http.ResponseWriter, r *http.Request) {
	vctx := core.New(w, r)
	if vctx.Identity == nil {
		view.Fail(w, errors.New("dashboard: identity middleware missing"))
		return
	}
	ctx := r.Context()

	var (
		u  *user.User
		sp *space.DTO
		g  errgroup.Group
	)
	g.Go(func() error { u = vctx.Identity.RequireUser(ctx); return nil })
	g.Go(func() error { sp = vctx.Identity.RequireSpace(ctx); return nil })
	_ = g.Wait()

	d := pageData{User: u, Space: sp, Calendars: c.flags.Calendars}
	if u != nil && sp != nil {
		d.Counts = c.loadCounts(ctx, sp.ID)
		d.CanManageBilling = c.flags.Billing && acl.ForMember(sp, u).Can(acl.Manage, acl.Billing)
	}

	title := "Dashboard"
	if sp != nil {
		title = sp.Name
	}
	if err := view.Render(vctx, "dashboard", "dashboard", view.Page{Title: title, Data: d}); err != nil {
		view.Fail(w, err)
	}
}

// loadCounts runs every counter concurrently.  Failures are logged and
// counted, and the counter reads zero.
func (c *Component) loadCounts(ctx context.Context, spaceID string) Counts {
	var (
		out Counts
		g   errgroup.Group
	)
	load := func(name string, dst *int, fn func() (int, error)) {
		g.Go(func() error {
			n, err := fn()
			if err != nil {
				zap.L().Warn("dashboard counter degraded",
					zap.String("counter", name),
					zap.String("space_id", spaceID),
					zap.Error(err))
				metrics.IdentityDegraded.WithLabelValues("counter").Inc()
				return nil
			}
			*dst = n
			return nil
		})
	}

	load("live_polls", &out.LivePolls, func() (int, error) { return c.counts.LivePollCount(ctx, spaceID) })
	load("upcoming_events", &out.UpcomingEvents, func() (int, error) {
		return c.counts.UpcomingEventCount(ctx, spaceID, c.now().UTC())
	})
	load("members", &out.Members, func() (int, error) { return c.counts.MemberCount(ctx, spaceID) })
	load("seats", &out.Seats, func() (int, error) { return c.counts.SeatCount(ctx, spaceID) })

	_ = g.Wait()
	return out
}
