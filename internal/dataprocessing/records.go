package dataprocessing

import (
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"clientpulse/pkg/contracts/domain"
)

// column is a canonical column name plus the header spellings it accepts.
type column struct {
	Name    string
	Aliases []string
}

func (c column) names() []string {
	return append([]string{c.Name}, c.Aliases...)
}

// Required transaction columns. The aliases are the headers used by the
// Portuguese-language exports this tool was first fed with.
var transactionColumns = []column{
	{Name: "customer_id", Aliases: []string{"cliente_id", "customer"}},
	{Name: "purchase_frequency", Aliases: []string{"frequencia_compras"}},
	{Name: "total_spend", Aliases: []string{"total_gasto"}},
	{Name: "days_since_last_purchase", Aliases: []string{"ultima_compra"}},
	{Name: "campaign_name", Aliases: []string{"campanha", "campaign"}},
	{Name: "purchase_value", Aliases: []string{"valor_compra"}},
}

// Required campaign columns
var campaignColumns = []column{
	{Name: "campaign_name", Aliases: []string{"nome_campanha", "campaign", "name"}},
	{Name: "campaign_cost", Aliases: []string{"custo_campanha", "cost"}},
	{Name: "reach", Aliases: []string{"alcance"}},
	{Name: "conversion_rate", Aliases: []string{"conversao"}},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report failures under the dataset column names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// rowDecoder pulls typed cells out of one row and remembers the first failure.
type rowDecoder struct {
	table *Table
	idx   map[string]int
	row   []string
	line  int
	err   error
}

func (d *rowDecoder) text(name string) string {
	return cell(d.row, d.idx[name])
}

func (d *rowDecoder) number(name string) float64 {
	if d.err != nil {
		return 0
	}
	raw := d.text(name)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		reason := "not a number"
		if raw == "" {
			reason = "empty cell"
		}
		d.err = &InputError{
			Dataset: d.table.Dataset,
			Column:  name,
			Row:     d.line,
			Value:   raw,
			Err:     fmt.Errorf("%w: %s", ErrInvalidValue, reason),
		}
		return 0
	}
	return v
}

// check runs struct validation and converts the first failure into an InputError.
func (d *rowDecoder) check(record any) error {
	if d.err != nil {
		return d.err
	}
	err := validate.Struct(record)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &InputError{Dataset: d.table.Dataset, Row: d.line, Err: fmt.Errorf("%w: %v", ErrInvalidValue, err)}
	}
	fe := verrs[0]
	return &InputError{
		Dataset: d.table.Dataset,
		Column:  fe.Field(),
		Row:     d.line,
		Value:   fmt.Sprint(fe.Value()),
		Err:     fmt.Errorf("%w: failed %q constraint", ErrInvalidValue, constraint(fe)),
	}
}

func constraint(fe validator.FieldError) string {
	if fe.Param() != "" {
		return fe.Tag() + "=" + fe.Param()
	}
	return fe.Tag()
}

// DecodeTransactions converts a table into transactions, failing on the first bad cell.
func DecodeTransactions(t *Table) ([]domain.Transaction, error) {
	idx, err := t.columnIndex(transactionColumns)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Transaction, 0, len(t.Rows))
	for i, row := range t.Rows {
		d := &rowDecoder{table: t, idx: idx, row: row, line: t.Lines[i]}
		tx := domain.Transaction{
			CustomerID:            d.text("customer_id"),
			PurchaseFrequency:     d.number("purchase_frequency"),
			TotalSpend:            d.number("total_spend"),
			DaysSinceLastPurchase: d.number("days_since_last_purchase"),
			CampaignName:          d.text("campaign_name"),
			PurchaseValue:         d.number("purchase_value"),
		}
		if err := d.check(tx); err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

// DecodeCampaigns converts a table into campaigns. Campaign names must be unique.
func DecodeCampaigns(t *Table) ([]domain.Campaign, error) {
	idx, err := t.columnIndex(campaignColumns)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]int, len(t.Rows))
	out := make([]domain.Campaign, 0, len(t.Rows))
	for i, row := range t.Rows {
		d := &rowDecoder{table: t, idx: idx, row: row, line: t.Lines[i]}
		c := domain.Campaign{
			Name:           d.text("campaign_name"),
			Cost:           d.number("campaign_cost"),
			Reach:          d.number("reach"),
			ConversionRate: d.number("conversion_rate"),
		}
		if err := d.check(c); err != nil {
			return nil, err
		}
		if first, dup := seen[c.Name]; dup {
			return nil, &InputError{
				Dataset: t.Dataset,
				Column:  "campaign_name",
				Row:     d.line,
				Value:   c.Name,
				Err:     fmt.Errorf("%w: first defined on row %d", ErrDuplicateKey, first),
			}
		}
		seen[c.Name] = d.line
		out = append(out, c)
	}
	return out, nil
}

// ParseTransactions reads and decodes a transactions dataset.
func ParseTransactions(r io.Reader, format Format) ([]domain.Transaction, error) {
	t, err := ReadTable(r, format, domain.DatasetTransactions)
	if err != nil {
		return nil, err
	}
	return DecodeTransactions(t)
}

// ParseCampaigns reads and decodes a campaigns dataset.
func ParseCampaigns(r io.Reader, format Format) ([]domain.Campaign, error) {
	t, err := ReadTable(r, format, domain.DatasetCampaigns)
	if err != nil {
		return nil, err
	}
	return DecodeCampaigns(t)
}
