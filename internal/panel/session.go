package panel

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/tekx/internal/models"
)

var roPathSegments = map[string]bool{"repair-orders": true, "repair-order": true, "ro": true}

// ExtractROID finds a repair order id in a shop UI URL.
//
// The path segment following "repair-orders", "repair-order" or "ro" wins when it is numeric;
// otherwise the roId or repairOrderId query parameter is used. Returns "" when neither is present.
func ExtractROID(pageURL string) string {
	u, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil {
		return ""
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(segments); i++ {
		if roPathSegments[strings.ToLower(segments[i])] && isDigits(segments[i+1]) {
			return segments[i+1]
		}
	}

	q := u.Query()
	for _, key := range []string{"roId", "repairOrderId"} {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			return v
		}
	}
	return ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// BeginSession hydrates persisted state and resolves the repair order id for pageURL, falling
// back to the persisted source id. When the id differs from the persisted one every
// session-scoped field is reset. Marks the panel as open.
func (c *Controller) BeginSession(pageURL string) (string, error) {
	c.state = c.defaults()
	if data, ok, err := c.storage.Get(StateKey); err != nil {
		c.logger.Debug("failed to read panel state", "error", err)
	} else if ok {
		c.state = Hydrate(data, c.defaults())
	}

	roID := ExtractROID(pageURL)
	if roID == "" {
		roID = c.state.SourceROID
	}
	if roID == "" {
		return "", fmt.Errorf("%w: no repair order id in %q", ErrNoRepairOrder, pageURL)
	}

	if roID != c.state.SourceROID {
		c.logger.Debug("new repair order, resetting session", "previous", c.state.SourceROID, "ro_id", roID)
		c.state.resetSession()
		c.state.SourceROID = roID
	}
	if c.state.RO != nil && c.state.RO.ID.String() != roID {
		c.state.RO = nil
	}

	if err := c.storage.Set(OpenKey, []byte("true")); err != nil {
		c.logger.Debug("failed to persist open flag", "error", err)
	}
	c.persist()
	return roID, nil
}

// ResolveRepairOrder applies the outcome of the repair order fetch.
//
// On failure the cached snapshot for the same id is reused; without one the session cannot start.
// On success the snapshot replaces the cached one and selections are pruned to its job ids.
func (c *Controller) ResolveRepairOrder(ro *models.RepairOrder, err error) error {
	if err != nil || ro == nil {
		if c.state.RO == nil {
			if err == nil {
				err = fmt.Errorf("empty response")
			}
			return fmt.Errorf("%w: %v", ErrNoRepairOrder, err)
		}
		c.logger.Debug("using cached repair order", "ro_id", c.state.SourceROID, "error", err)
	} else {
		c.state.RO = ro
	}

	cl := c.classification()
	c.state.RepeatServices.Retain(cl.PerformedIDs())
	c.state.DeclinedServices.Retain(cl.DeclinedIDs())
	c.refresh()
	return nil
}

// Open starts a session for pageURL and loads its repair order.
func (c *Controller) Open(ctx context.Context, pageURL string) error {
	roID, err := c.BeginSession(pageURL)
	if err != nil {
		return err
	}
	if c.backend == nil {
		return c.ResolveRepairOrder(nil, ErrNoRepairOrder)
	}
	ro, err := c.backend.RepairOrder(ctx, roID)
	return c.ResolveRepairOrder(ro, err)
}

// Close discards the persisted state and the open flag, and resets to defaults.
func (c *Controller) Close() {
	for _, key := range []string{StateKey, OpenKey} {
		if err := c.storage.Delete(key); err != nil {
			c.logger.Debug("failed to clear panel storage", "key", key, "error", err)
		}
	}
	c.state = c.defaults()
}

// ShouldAutoOpen reports whether the panel was left open.
func (c *Controller) ShouldAutoOpen() bool {
	v, ok, err := c.storage.Get(OpenKey)
	return err == nil && ok && string(v) == "true"
}
