package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	devicedomain "github.com/fleetmetrics/printledger/internal/device/domain"
	ledgerdomain "github.com/fleetmetrics/printledger/internal/ledger/domain"
	"github.com/fleetmetrics/printledger/internal/providers/pdf"
	usagedomain "github.com/fleetmetrics/printledger/internal/usage/domain"
	"github.com/fleetmetrics/printledger/pkg/db/option"
	"github.com/fleetmetrics/printledger/pkg/db/pagination"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listDevices(c *gin.Context) {
	devices, err := s.devices.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"devices": devices})
}

func (s *Server) mergeDevices(c *gin.Context) {
	var req devicedomain.MergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", devicedomain.ErrInvalidMerge, err))
		return
	}

	alias, err := s.devices.Merge(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alias": alias})
}

func (s *Server) deviceLedger(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abortWithError(c, devicedomain.ErrNotFound)
		return
	}

	ctx := c.Request.Context()
	device, err := s.devices.GetByID(ctx, id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	entries, err := s.ledger.ListByDevice(ctx, id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"device": device, "entries": entries})
}

func (s *Server) listLedger(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", ledgerdomain.ErrInvalidEntry, err))
		return
	}
	if page.PageSize <= 0 || page.PageSize > 500 {
		page.PageSize = 50
	}

	opts := []option.QueryOption{
		option.WithOrder("id ASC"),
		option.WithLimit(page.PageSize + 1),
	}
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			abortWithError(c, fmt.Errorf("%w: bad page token", ledgerdomain.ErrInvalidEntry))
			return
		}
		after, err := strconv.ParseInt(cursor.ID, 10, 64)
		if err != nil {
			abortWithError(c, fmt.Errorf("%w: bad page token", ledgerdomain.ErrInvalidEntry))
			return
		}
		opts = append(opts, option.WithCondition("id > ?", after))
	}

	entries, err := s.ledgerStore.Find(c.Request.Context(), &ledgerdomain.Entry{}, opts...)
	if err != nil {
		abortWithError(c, err)
		return
	}

	pageInfo, entries := pagination.BuildCursorPageInfo(entries, page.PageSize, func(e *ledgerdomain.Entry) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: e.ID.String()})
		return token
	})
	c.JSON(http.StatusOK, gin.H{"entries": entries, "page_info": pageInfo})
}

func (s *Server) listUsage(c *gin.Context) {
	filter := usagedomain.Filter{Channel: c.Query("channel")}
	if raw := c.Query("device_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			abortWithError(c, devicedomain.ErrNotFound)
			return
		}
		filter.DeviceID = id
	}
	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			abortWithError(c, fmt.Errorf("%w: since must be RFC3339", ledgerdomain.ErrInvalidEntry))
			return
		}
		filter.Since = t
	}
	if raw := c.Query("until"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			abortWithError(c, fmt.Errorf("%w: until must be RFC3339", ledgerdomain.ErrInvalidEntry))
			return
		}
		filter.Until = t
	}

	periods, err := s.usage.List(c.Request.Context(), filter)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"periods": periods})
}

func (s *Server) report(c *gin.Context) {
	rows, err := s.workCenters.Report(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

func (s *Server) reportPDF(c *gin.Context) {
	ctx := c.Request.Context()

	rows, err := s.workCenters.Report(ctx)
	if err != nil {
		abortWithError(c, err)
		return
	}
	costs, err := s.reference.ListPageCosts(ctx)
	if err != nil {
		abortWithError(c, err)
		return
	}

	costByChannel := map[string]float64{}
	for _, pc := range costs {
		costByChannel[pc.Channel] = pc.Cost
	}

	data := pdf.ReportData{
		Title:       "Printer Fleet Usage",
		GeneratedAt: time.Now().UTC().Format("2006-01-02 15:04 MST"),
	}
	var totalPages int64
	var totalCost float64
	for _, row := range rows {
		cost := float64(row.Delta) * costByChannel[row.Channel]
		totalPages += row.Delta
		totalCost += cost

		line := pdf.ReportLine{
			DeviceKey: row.DeviceKey,
			PeriodEnd: row.PeriodEnd.Format("2006-01-02"),
			Channel:   row.Channel,
			Pages:     row.Delta,
			Cost:      fmt.Sprintf("%.2f", cost),
		}
		if row.WorkCenter != nil {
			line.WorkCenter = *row.WorkCenter
		}
		if row.Site != nil {
			line.Site = *row.Site
		}
		data.Rows = append(data.Rows, line)
	}
	data.TotalPages = fmt.Sprintf("%d", totalPages)
	data.TotalCost = fmt.Sprintf("%.2f", totalCost)

	doc, err := s.pdf.GenerateUsageReport(ctx, data)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="fleet-usage.pdf"`)
	c.Header("Content-Type", "application/pdf")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, doc)
}

func (s *Server) pageCosts(c *gin.Context) {
	costs, err := s.reference.ListPageCosts(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"page_costs": costs})
}

func (s *Server) triggerRun(c *gin.Context) {
	if err := s.collector.Run(c.Request.Context()); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "completed"})
}
