package pdf

import (
	"context"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"go.uber.org/fx"
)

var Module = fx.Module("providers.pdf",
	fx.Provide(New),
)

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) RenderReceipt(ctx context.Context, data ReceiptData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(8, valueOr(data.StoreName, "Store"), props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, "Receipt", props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Right,
		}),
	)

	m.AddRow(22,
		col.New(6).Add(
			text.New("Invoice: #"+data.InvoiceID, props.Text{Top: 0}),
			text.New("Order: "+data.OrderID, props.Text{Top: 5, Size: 8}),
			text.New("Issued: "+data.IssuedAt.UTC().Format("2006-01-02 15:04 MST"), props.Text{Top: 10}),
		),
		col.New(6).Add(
			text.New("Billed to", props.Text{Style: fontstyle.Bold, Align: align.Right}),
			text.New(data.BuyerTag, props.Text{Top: 5, Align: align.Right}),
			text.New("ID "+data.BuyerID, props.Text{Top: 10, Size: 8, Align: align.Right}),
		),
	)

	m.AddRow(10,
		text.NewCol(8, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(4, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(12,
		text.NewCol(8, data.ProductName, props.Text{Size: 9}),
		text.NewCol(4, data.Amount, props.Text{Size: 9, Align: align.Right}),
	)

	m.AddRow(10,
		col.New(6),
		text.NewCol(3, "Payment method", props.Text{Size: 9}),
		text.NewCol(3, strings.ToUpper(valueOr(data.PaymentMethod, "n/a")), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(6),
		text.NewCol(3, "Paid", props.Text{Size: 9, Style: fontstyle.Bold}),
		text.NewCol(3, valueOr(data.PaidAmount, data.Amount), props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(6),
		text.NewCol(3, "Status", props.Text{Size: 9}),
		text.NewCol(3, strings.ToUpper(valueOr(data.Status, "pending")), props.Text{Size: 9, Align: align.Right}),
	)

	if data.TransactionID != "" {
		m.AddRow(10,
			text.NewCol(12, "Transaction reference: "+data.TransactionID, props.Text{Size: 8, Top: 4}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

func valueOr(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}
