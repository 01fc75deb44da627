package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type ReportData struct {
	Title       string
	GeneratedAt string

	Rows []ReportLine

	TotalPages string
	TotalCost  string
}

type ReportLine struct {
	DeviceKey  string
	WorkCenter string
	Site       string
	PeriodEnd  string
	Channel    string
	Pages      int64
	Cost       string
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateUsageReport(ctx context.Context, data ReportData) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, data.Title, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	m.AddRow(8,
		text.NewCol(12, "Generated: "+data.GeneratedAt, props.Text{Size: 9}),
	)

	// Table Header
	m.AddRow(10,
		text.NewCol(2, "Printer", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Work center", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Site", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Period end", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(1, "Size", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(1, "Pages", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(1, "Cost", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, row := range data.Rows {
		m.AddRow(8,
			text.NewCol(2, row.DeviceKey, props.Text{Size: 8}),
			text.NewCol(3, row.WorkCenter, props.Text{Size: 8}),
			text.NewCol(2, row.Site, props.Text{Size: 8}),
			text.NewCol(2, row.PeriodEnd, props.Text{Size: 8}),
			text.NewCol(1, row.Channel, props.Text{Size: 8}),
			text.NewCol(1, fmt.Sprintf("%d", row.Pages), props.Text{Size: 8, Align: align.Right}),
			text.NewCol(1, row.Cost, props.Text{Size: 8, Align: align.Right}),
		)
	}

	// Footer Totals
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total pages", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, data.TotalPages, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total cost", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, data.TotalCost, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}
