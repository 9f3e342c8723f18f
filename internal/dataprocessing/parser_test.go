package dataprocessing

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"clientpulse/pkg/contracts/domain"
)

const transactionsCSV = `customer_id,purchase_frequency,total_spend,days_since_last_purchase,campaign_name,purchase_value
1,5,1000,30,A,100
2,6,5200,40,A,200
1,5,1000,30,B,50
`

const campaignsCSV = `campaign_name,campaign_cost,reach,conversion_rate
A,1000,5000,0.05
B,0,3000,0.02
`

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"data.csv", FormatCSV, false},
		{"DATA.CSV", FormatCSV, false},
		{"book.xlsx", FormatXLSX, false},
		{"noext", FormatCSV, false},
		{"report.pdf", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTransactions(t *testing.T) {
	txs, err := ParseTransactions(strings.NewReader(transactionsCSV), FormatCSV)
	require.NoError(t, err)
	require.Len(t, txs, 3)

	assert.Equal(t, domain.Transaction{
		CustomerID:            "2",
		PurchaseFrequency:     6,
		TotalSpend:            5200,
		DaysSinceLastPurchase: 40,
		CampaignName:          "A",
		PurchaseValue:         200,
	}, txs[1])
}

func TestParseTransactionsPortugueseHeaders(t *testing.T) {
	input := "\ufeffcliente_id,frequencia_compras,total_gasto,ultima_compra,campanha,valor_compra\n" +
		"7,3,900.5,12,Promo,45\n"

	txs, err := ParseTransactions(strings.NewReader(input), FormatCSV)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "7", txs[0].CustomerID)
	assert.Equal(t, 900.5, txs[0].TotalSpend)
	assert.Equal(t, "Promo", txs[0].CampaignName)
}

func TestParseTransactionsErrors(t *testing.T) {
	header := "customer_id,purchase_frequency,total_spend,days_since_last_purchase,campaign_name,purchase_value\n"

	tests := []struct {
		name       string
		input      string
		wantErr    error
		wantColumn string
		wantRow    int
	}{
		{
			name:    "empty input",
			input:   "",
			wantErr: ErrEmptyDataset,
		},
		{
			name:    "header only",
			input:   header,
			wantErr: ErrEmptyDataset,
		},
		{
			name:       "missing column",
			input:      "customer_id,purchase_frequency,total_spend,campaign_name,purchase_value\n1,2,3,A,4\n",
			wantErr:    ErrMissingColumn,
			wantColumn: "days_since_last_purchase",
		},
		{
			name:       "non numeric spend",
			input:      header + "1,2,3,4,A,5\n2,2,abc,4,A,5\n",
			wantErr:    ErrInvalidValue,
			wantColumn: "total_spend",
			wantRow:    2,
		},
		{
			name:       "empty numeric cell",
			input:      header + "1,,3,4,A,5\n",
			wantErr:    ErrInvalidValue,
			wantColumn: "purchase_frequency",
			wantRow:    1,
		},
		{
			name:       "blank customer id",
			input:      header + "1,2,3,4,A,5\n ,2,3,4,A,5\n",
			wantErr:    ErrInvalidValue,
			wantColumn: "customer_id",
			wantRow:    2,
		},
		{
			name:       "negative recency",
			input:      header + "1,2,3,-4,A,5\n",
			wantErr:    ErrInvalidValue,
			wantColumn: "days_since_last_purchase",
			wantRow:    1,
		},
		{
			name:       "infinite value",
			input:      header + "1,2,Inf,4,A,5\n",
			wantErr:    ErrInvalidValue,
			wantColumn: "total_spend",
			wantRow:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTransactions(strings.NewReader(tt.input), FormatCSV)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var inErr *InputError
			require.True(t, errors.As(err, &inErr))
			assert.Equal(t, domain.DatasetTransactions, inErr.Dataset)
			assert.Equal(t, tt.wantColumn, inErr.Column)
			assert.Equal(t, tt.wantRow, inErr.Row)
			assert.Contains(t, err.Error(), domain.DatasetTransactions)
		})
	}
}

func TestBlankRowsKeepNumbering(t *testing.T) {
	input := "campaign_name,campaign_cost,reach,conversion_rate\nA,1,2,0.1\n,,,\nB,x,2,0.1\n"
	_, err := ParseCampaigns(strings.NewReader(input), FormatCSV)

	var inErr *InputError
	require.ErrorAs(t, err, &inErr)
	assert.Equal(t, 3, inErr.Row)
	assert.Equal(t, "campaign_cost", inErr.Column)
	assert.Equal(t, "x", inErr.Value)
}

func TestParseCampaigns(t *testing.T) {
	camps, err := ParseCampaigns(strings.NewReader(campaignsCSV), FormatCSV)
	require.NoError(t, err)
	require.Len(t, camps, 2)
	assert.Equal(t, domain.Campaign{Name: "B", Cost: 0, Reach: 3000, ConversionRate: 0.02}, camps[1])
}

func TestParseCampaignsDuplicateName(t *testing.T) {
	input := campaignsCSV + "A,50,10,0.1\n"
	_, err := ParseCampaigns(strings.NewReader(input), FormatCSV)
	require.ErrorIs(t, err, ErrDuplicateKey)

	var inErr *InputError
	require.ErrorAs(t, err, &inErr)
	assert.Equal(t, 3, inErr.Row)
	assert.Equal(t, "campaign_name", inErr.Column)
}

func TestParseCampaignsNegativeCost(t *testing.T) {
	input := "campaign_name,campaign_cost,reach,conversion_rate\nA,-5,1,0.1\n"
	_, err := ParseCampaigns(strings.NewReader(input), FormatCSV)
	require.ErrorIs(t, err, ErrInvalidValue)
	assert.Contains(t, err.Error(), "gte=0")
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Campaign_Name", "Campaign_Cost", "Reach", "Conversion_Rate"},
		{"A", 1000, 5000, 0.05},
		{"B", 250.5, 100, 0.2},
	}
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cellRef, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	camps, err := ParseCampaigns(bytes.NewReader(buf.Bytes()), FormatXLSX)
	require.NoError(t, err)
	require.Len(t, camps, 2)
	assert.Equal(t, "B", camps[1].Name)
	assert.Equal(t, 250.5, camps[1].Cost)
}

func TestParseXLSXCorrupt(t *testing.T) {
	_, err := ParseCampaigns(strings.NewReader("not a zip"), FormatXLSX)
	require.ErrorIs(t, err, ErrInvalidValue)
}
