package testutil

import (
	"bytes"
	"mime/multipart"
	"testing"
)

// TransactionsCSV is a small transactions dataset with three customer
// profiles, two transactions for customer 1 and a campaign ("Autumn") that
// has no definition.
const TransactionsCSV = `customer_id,purchase_frequency,total_spend,days_since_last_purchase,campaign_name,purchase_value
1,20,6000,5,Summer,100
1,22,6400,3,Winter,120
2,1,200,300,Summer,50
3,5,2000,60,Spring,75
4,18,61000,10,Winter,900
5,2,350,280,Spring,40
6,7,2500,90,Autumn,60
`

// CampaignsCSV defines every campaign in TransactionsCSV except "Autumn".
const CampaignsCSV = `campaign_name,campaign_cost,reach,conversion_rate
Summer,1000,500,0.1
Spring,500,200,0.2
Winter,2000,900,0.05
`

// PortugueseTransactionsCSV uses the original Portuguese column names.
const PortugueseTransactionsCSV = `cliente_id,frequencia_compras,total_gasto,ultima_compra,campanha,valor_compra
1,20,6000,5,A,100
2,1,200,300,A,50
3,5,2000,60,B,75
`

// PortugueseCampaignsCSV pairs with PortugueseTransactionsCSV.
const PortugueseCampaignsCSV = `nome_campanha,custo_campanha,alcance,conversao
A,1000,500,0.1
B,500,200,0.2
`

// Files maps multipart field names to file contents.
type Files map[string]string

// MultipartUpload encodes files as a multipart/form-data body. Each file is
// named after its field with a .csv extension.
func MultipartUpload(t *testing.T, files Files) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for field, content := range files {
		part, err := mw.CreateFormFile(field, field+".csv")
		if err != nil {
			t.Fatalf("create form file %s: %v", field, err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("write form file %s: %v", field, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, mw.FormDataContentType()
}
