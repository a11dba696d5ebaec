package panel

import (
	"context"
	"time"

	"github.com/desertthunder/tekx/internal/models"
)

// CountsRequest asks for booked appointment counts of one shop over a window.
type CountsRequest struct {
	ShopID string
	Start  time.Time
	End    time.Time
}

// Key fingerprints the request as "shop|start|end" using date keys.
func (r CountsRequest) Key() string {
	return r.ShopID + "|" + r.Start.Format(time.DateOnly) + "|" + r.End.Format(time.DateOnly)
}

// RequestCounts returns the counts request for the current window, or false when none is needed.
//
// No request is issued while one for the same key is loading or once the key has resolved; a new
// one is issued whenever the key changes. The returned request marks the state as loading until
// [Controller.ResolveCounts] is called with it.
func (c *Controller) RequestCounts() (CountsRequest, bool) {
	if c.state.RO == nil || c.state.RO.ShopID == "" {
		return CountsRequest{}, false
	}

	window := DateWindow(c.recommendation().Date)
	req := CountsRequest{ShopID: c.state.RO.ShopID.String(), Start: window[0], End: window[len(window)-1]}
	key := req.Key()
	if key == c.state.AppointmentCountWeekKey {
		return CountsRequest{}, false
	}

	c.state.AppointmentCountWeekKey = key
	c.state.AppointmentCountsLoading = true
	c.state.AppointmentCounts = models.AppointmentCounts{}
	c.persist()
	return req, true
}

// ResolveCounts applies the outcome of a counts request.
//
// Results for a key that is no longer current are dropped. A failure stores empty counts. Either
// outcome clears the loading flag.
func (c *Controller) ResolveCounts(req CountsRequest, counts models.AppointmentCounts, err error) {
	if req.Key() != c.state.AppointmentCountWeekKey {
		c.logger.Debug("dropping superseded appointment counts", "key", req.Key())
		return
	}

	c.state.AppointmentCountsLoading = false
	if err != nil || counts == nil {
		if err != nil {
			c.logger.Debug("appointment counts unavailable", "key", req.Key(), "error", err)
		}
		c.state.AppointmentCounts = models.AppointmentCounts{}
	} else {
		c.state.AppointmentCounts = counts
	}
	c.persist()
}

// FetchCounts requests and resolves counts synchronously.
func (c *Controller) FetchCounts(ctx context.Context) {
	req, ok := c.RequestCounts()
	if !ok {
		return
	}
	var (
		counts models.AppointmentCounts
		err    = ErrNoRepairOrder
	)
	if c.backend != nil {
		counts, err = c.backend.AppointmentCounts(ctx, req)
	}
	c.ResolveCounts(req, counts, err)
}
