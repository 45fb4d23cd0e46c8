package ofx

import (
	"context"
	"io"

	"github.com/lekha-app/lekha/internal/importer"
	"github.com/lekha-app/lekha/internal/service"
)

// Importer loads OFX statements into an existing book.
type Importer struct {
	Store       service.BookStore
	Progress    importer.ProgressFunc
	PerformedBy string
}

// Run parses the statement and saves every entry into the book. Entries
// without a description or category get the standard import defaults.
func (imp *Importer) Run(ctx context.Context, bookID string, r io.Reader) (importer.Result, error) {
	var res importer.Result

	txns, err := NewParser().ParseFile(ctx, r)
	if err != nil {
		return res, err
	}

	for i := range txns {
		txn := &txns[i]
		txn.BookID = bookID
		txn.CreatedBy = imp.PerformedBy
		if txn.Description == "" {
			txn.Description = "Imported Transaction"
		}
		if txn.CategoryID == "" {
			txn.CategoryID = "Uncategorized"
		}
		if err := imp.Store.CreateTransaction(ctx, txn); err != nil {
			return res, err
		}
		res.Created++

		if imp.Progress != nil && (res.Created%importer.ProgressInterval == 0 || res.Created == len(txns)) {
			imp.Progress(res.Created, len(txns))
		}
	}
	return res, nil
}
