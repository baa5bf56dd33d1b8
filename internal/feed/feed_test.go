package feed

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/ledger_recon/internal/apperrors"
	"github.com/SscSPs/ledger_recon/internal/core/domain"
)

func TestCSVParser(t *testing.T) {
	statement := `Date,Amount,Type,Reference
2024-02-11,200.00,DEBIT,INV-0042
2024-02-20, 15 ,credit,Monthly fee

2024-02-25,"1,003.10",CREDIT,
`
	rows, err := CSVParser{}.Parse(strings.NewReader(statement))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, time.Date(2024, 2, 11, 0, 0, 0, 0, time.UTC), rows[0].Date)
	assert.Equal(t, "200", rows[0].Amount.String())
	assert.Equal(t, domain.Debit, rows[0].Type)
	assert.Equal(t, "INV-0042", rows[0].Reference)

	assert.Equal(t, domain.Credit, rows[1].Type)
	assert.Equal(t, "Monthly fee", rows[1].Reference)

	assert.Equal(t, "1003.1", rows[2].Amount.String())
	assert.Empty(t, rows[2].Reference)
}

func TestCSVParser_SignedAmountsWithoutType(t *testing.T) {
	rows, err := CSVParser{}.Parse(strings.NewReader("amount,date\n-42.50,2024-03-01\n10,01/03/2024\n"))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, domain.Credit, rows[0].Type)
	assert.Equal(t, "42.5", rows[0].Amount.String())
	assert.Equal(t, domain.Debit, rows[1].Type)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), rows[1].Date)
}

func TestCSVParser_Rejects(t *testing.T) {
	testCases := []struct {
		name      string
		statement string
		wantErr   string
	}{
		{name: "empty", statement: "", wantErr: "statement is empty"},
		{name: "no rows", statement: "date,amount\n", wantErr: "no rows"},
		{name: "missing amount column", statement: "date,value\n2024-01-01,3\n", wantErr: `missing required column "amount"`},
		{name: "bad date", statement: "date,amount\n31.01.2024,3\n", wantErr: "line 2: invalid date"},
		{name: "bad amount", statement: "date,amount\n2024-01-01,abc\n", wantErr: `line 2: invalid amount "abc"`},
		{name: "zero amount", statement: "date,amount\n2024-01-01,0\n", wantErr: "amount must be positive"},
		{name: "bad type", statement: "date,amount,type\n2024-01-01,5,SIDEWAYS\n", wantErr: `invalid type "SIDEWAYS"`},
		{name: "negative with type", statement: "date,amount,type\n2024-01-01,-5,DEBIT\n", wantErr: "must not be negative"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := CSVParser{}.Parse(strings.NewReader(tc.statement))
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrValidation))
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestJSONParser(t *testing.T) {
	bare := `[{"date":"2024-02-11","amount":"200.00","type":"DEBIT","reference":"INV-0042"},
	          {"date":"2024-02-20T00:00:00Z","amount":-15,"reference":"fee"}]`
	rows, err := JSONParser{}.Parse(strings.NewReader(bare))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "200", rows[0].Amount.String())
	assert.Equal(t, domain.Credit, rows[1].Type)
	assert.Equal(t, "15", rows[1].Amount.String())

	wrapped := `{"transactions":[{"date":"2024-02-25","amount":3.10,"type":"CREDIT"}]}`
	rows, err = JSONParser{}.Parse(strings.NewReader(wrapped))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "3.1", rows[0].Amount.String())

	_, err = JSONParser{}.Parse(strings.NewReader(`{"transactions":[]}`))
	assert.ErrorContains(t, err, "no rows")

	_, err = JSONParser{}.Parse(strings.NewReader(`[{"date":"2024-02-25","amount":"x"}]`))
	assert.ErrorContains(t, err, "row 1")

	_, err = JSONParser{}.Parse(strings.NewReader(`not json`))
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestForFile(t *testing.T) {
	p, err := ForFile("/tmp/statement.CSV")
	require.NoError(t, err)
	assert.IsType(t, CSVParser{}, p)

	p, err = ForFile("feb.json")
	require.NoError(t, err)
	assert.IsType(t, JSONParser{}, p)

	_, err = ForFile("feb.xlsx")
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}
