package pdf

import (
	"bytes"
	"context"
	"io"

	appconfig "github.com/Sandeep241003/home-rent-ease/internal/config"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type ReceiptData struct {
	ReceiptNumber string
	RoomNumber    string
	TenantName    string
	Amount        string
	PaymentMode   string
	PaymentDate   string
	PendingAfter  string
	ExtraAfter    string
	Notes         string
}

type Provider interface {
	GenerateReceipt(ctx context.Context, data ReceiptData) (io.Reader, error)
}

type Generator struct {
	appCfg appconfig.Config
	policy *appconfig.PolicyConfigHolder
}

func NewGenerator(appCfg appconfig.Config, policy *appconfig.PolicyConfigHolder) *Generator {
	return &Generator{appCfg: appCfg, policy: policy}
}

func (g *Generator) GenerateReceipt(_ context.Context, data ReceiptData) (io.Reader, error) {
	receiptPolicy := g.policy.Get().Receipt

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(25,
		text.NewCol(8, g.appCfg.PropertyName, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, receiptPolicy.Title, props.Text{
			Size:  11,
			Align: align.Right,
			Top:   4,
		}),
	)

	m.AddRow(4, line.NewCol(12))

	m.AddRow(20,
		col.New(6).Add(
			text.New("Receipt no: "+data.ReceiptNumber, props.Text{Top: 0}),
			text.New("Date: "+data.PaymentDate, props.Text{Top: 5}),
		),
		col.New(6).Add(
			text.New("Room: "+data.RoomNumber, props.Text{Top: 0, Align: align.Right}),
			text.New("Tenant: "+data.TenantName, props.Text{Top: 5, Align: align.Right}),
		),
	)

	m.AddRow(15,
		text.NewCol(12, data.Amount+" "+g.appCfg.CurrencyCode+" received via "+data.PaymentMode, props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Top:   3,
		}),
	)

	if data.Notes != "" {
		m.AddRow(10,
			text.NewCol(12, data.Notes, props.Text{Size: 9}),
		)
	}

	m.AddRow(10,
		text.NewCol(6, "Balance after payment", props.Text{Style: fontstyle.Bold, Size: 9}),
		col.New(6),
	)
	m.AddRow(8,
		text.NewCol(6, "Pending", props.Text{Size: 9}),
		text.NewCol(6, data.PendingAfter, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(8,
		text.NewCol(6, "Advance", props.Text{Size: 9}),
		text.NewCol(6, data.ExtraAfter, props.Text{Size: 9, Align: align.Right}),
	)

	m.AddRow(15,
		text.NewCol(12, receiptPolicy.FooterNote, props.Text{
			Size: 8,
			Top:  8,
		}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}
