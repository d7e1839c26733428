package api

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/buixuanquoc47/pomoteam/internal/report"
)

// timestampLayouts are accepted for the from/to query parameters, most
// specific first.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// MyReport handles GET /api/v1/reports/me.
func (h *Handlers) MyReport(c *fiber.Ctx) error {
	w, ok, err := h.resolveWindow(c)
	if !ok {
		return err
	}

	stats, err := h.reports.UserReport(callerID(c), w)
	if err != nil {
		return err
	}

	return c.JSON(UserReportResponse{
		Range:     WindowInfo{From: w.From, To: w.To},
		UserStats: stats,
	})
}

// TeamReport handles GET /api/v1/reports/team. Leader role is enforced by
// middleware.
func (h *Handlers) TeamReport(c *fiber.Ctx) error {
	w, ok, err := h.resolveWindow(c)
	if !ok {
		return err
	}

	members, err := h.reports.TeamReport(callerTeamID(c), w)
	if err != nil {
		return err
	}

	return c.JSON(TeamReportResponse{
		Range:   WindowInfo{From: w.From, To: w.To},
		Members: members,
	})
}

// resolveWindow picks the report window from query parameters: explicit
// from/to when both parse, otherwise the range preset (day|week|month,
// defaulting to week). ok is false when a supplied bound was malformed; the
// problem response has then already been written and the caller returns err
// as-is.
func (h *Handlers) resolveWindow(c *fiber.Ctx) (w report.Window, ok bool, err error) {
	fromRaw := c.Query("from")
	toRaw := c.Query("to")

	if fromRaw != "" && toRaw != "" {
		from, perr := parseTimestamp(fromRaw)
		if perr != nil {
			return report.Window{}, false, problemResponse(c, fiber.StatusBadRequest,
				"invalid_from", "Bad Request",
				"Cannot parse 'from' timestamp: "+fromRaw)
		}
		to, perr := parseTimestamp(toRaw)
		if perr != nil {
			return report.Window{}, false, problemResponse(c, fiber.StatusBadRequest,
				"invalid_to", "Bad Request",
				"Cannot parse 'to' timestamp: "+toRaw)
		}
		return h.reports.ResolveWindow("", &from, &to), true, nil
	}

	preset := report.Preset(c.Query("range"))
	return h.reports.ResolveWindow(preset, nil, nil), true, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
