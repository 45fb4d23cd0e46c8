package ofx

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lekha-app/lekha/internal/model"
)

// Sample OFX data for testing.
const sampleBankOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-25.50
<FITID>2024011501
<NAME>POS PURCHASE CORNER CAFE
</STMTTRN>
<STMTTRN>
<TRNTYPE>INT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>1.75
<FITID>2024012001
<NAME>INTEREST PAYMENT
</STMTTRN>
<STMTTRN>
<TRNTYPE>CHECK
<DTPOSTED>20240125120000[0:GMT]
<TRNAMT>-500.00
<FITID>2024012501
<CHECKNUM>1234
<NAME>CHECK #1234
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func TestParseFile(t *testing.T) {
	tests := []struct {
		name          string
		ofxData       string
		expectedCount int
		expectedError bool
	}{
		{
			name:          "valid bank statement",
			ofxData:       sampleBankOFX,
			expectedCount: 3,
		},
		{
			name:          "invalid OFX data",
			ofxData:       "not valid OFX",
			expectedError: true,
		},
		{
			name:          "empty OFX",
			ofxData:       "",
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewParser()
			transactions, err := parser.ParseFile(context.Background(), strings.NewReader(tt.ofxData))

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Len(t, transactions, tt.expectedCount)
			}
		})
	}
}

func TestParseBankTransactions(t *testing.T) {
	parser := NewParser()

	transactions, err := parser.ParseFile(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	require.Len(t, transactions, 3)

	coffee := transactions[0]
	assert.Equal(t, model.TypeExpense, coffee.Type)
	assert.Equal(t, 25.50, coffee.Amount, "amounts are stored unsigned")
	assert.Equal(t, "CORNER CAFE", coffee.Description, "POS prefix stripped")
	assert.Equal(t, "Bank", coffee.PaymentMode)
	assert.Empty(t, coffee.CategoryID)
	assert.Empty(t, coffee.BookID, "book assignment is the caller's job")
	// Compare just the date components, ignoring timezone
	assert.Equal(t, 2024, coffee.TxnDate.Year())
	assert.Equal(t, time.January, coffee.TxnDate.Month())
	assert.Equal(t, 15, coffee.TxnDate.Day())

	interest := transactions[1]
	assert.Equal(t, model.TypeIncome, interest.Type, "positive amounts are income")
	assert.Equal(t, 1.75, interest.Amount)
	assert.Equal(t, "Interest", interest.CategoryID)

	check := transactions[2]
	assert.Equal(t, model.TypeExpense, check.Type)
	assert.Equal(t, 500.00, check.Amount)
}

func TestExtractDescription(t *testing.T) {
	tests := []struct {
		name     string
		txName   string
		memo     string
		expected string
	}{
		{
			name:     "remove POS prefix",
			txName:   "POS PURCHASE STARBUCKS",
			expected: "STARBUCKS",
		},
		{
			name:     "remove DEBIT CARD prefix",
			txName:   "DEBIT CARD PURCHASE WHOLE FOODS",
			expected: "WHOLE FOODS",
		},
		{
			name:     "keep clean name",
			txName:   "NETFLIX.COM",
			expected: "NETFLIX.COM",
		},
		{
			name:     "trim whitespace",
			txName:   "  AMAZON.COM  ",
			expected: "AMAZON.COM",
		},
		{
			name:     "memo replaces generic name",
			txName:   "DEBIT",
			memo:     "CITY PARKING GARAGE",
			expected: "CITY PARKING GARAGE",
		},
	}

	parser := NewParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := ofxgo.Transaction{
				Name: ofxgo.String(tt.txName),
				Memo: ofxgo.String(tt.memo),
			}
			assert.Equal(t, tt.expected, parser.extractDescription(tx))
		})
	}
}

func TestImporterRun(t *testing.T) {
	store := &captureStore{}
	imp := &Importer{Store: store, PerformedBy: "alice"}

	res, err := imp.Run(context.Background(), "book_bank", strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Created)
	require.Len(t, store.transactions, 3)

	for _, txn := range store.transactions {
		assert.Equal(t, "book_bank", txn.BookID)
		assert.Equal(t, "alice", txn.CreatedBy)
		assert.NotEmpty(t, txn.Description)
		assert.NotEmpty(t, txn.CategoryID)
	}
	assert.Equal(t, "Uncategorized", store.transactions[0].CategoryID)
	assert.Equal(t, "Interest", store.transactions[1].CategoryID)
}

type captureStore struct {
	transactions []*model.Transaction
}

func (s *captureStore) CreateBook(context.Context, *model.Book) error { return nil }
func (s *captureStore) PutBook(context.Context, *model.Book) error   { return nil }
func (s *captureStore) CreateTransaction(_ context.Context, txn *model.Transaction) error {
	s.transactions = append(s.transactions, txn)
	return nil
}
