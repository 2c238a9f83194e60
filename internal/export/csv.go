package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/ignite/commerce-insights/internal/domain"
	"github.com/ignite/commerce-insights/internal/metrics"
)

// DateLayout formats date_of_birth cells.
const DateLayout = "2006-01-02"

// Columns is the fixed CSV header.
var Columns = []string{"customer_id", "name", "phone", "email", "gender", "date_of_birth"}

// WriteCSV writes the header and one row per customer, in the given order.
// It returns the number of data rows written.
func WriteCSV(w io.Writer, customers []domain.Customer) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}

	row := make([]string, len(Columns))
	for i, c := range customers {
		row[0] = c.CustomerID
		row[1] = c.Name
		row[2] = c.Phone
		row[3] = c.Email
		row[4] = string(c.Gender)
		row[5] = ""
		if !c.DateOfBirth.IsZero() {
			row[5] = c.DateOfBirth.Format(DateLayout)
		}
		if err := cw.Write(row); err != nil {
			return i, fmt.Errorf("write csv row %s: %w", c.CustomerID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return len(customers), fmt.Errorf("flush csv: %w", err)
	}
	metrics.ExportedRows.Add(float64(len(customers)))
	return len(customers), nil
}
