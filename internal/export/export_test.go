package export

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vinodismyname/emcregs/data"
	"github.com/vinodismyname/emcregs/internal/refdata"
)

func loadStore(t *testing.T) *refdata.Store {
	t.Helper()
	store, err := refdata.Load(context.Background(), data.Tables)
	require.NoError(t, err)
	return store
}

func TestWriteRoundTrip(t *testing.T) {
	store := loadStore(t)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, store))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, Sheets, f.GetSheetList())

	rows, err := f.GetRows(SheetRestricted)
	require.NoError(t, err)
	require.Len(t, rows, len(store.Restricted.Bands)+1)
	require.Equal(t, []string{"Min MHz", "Max MHz", "Service"}, rows[0])

	rows, err = f.GetRows(SheetLTE)
	require.NoError(t, err)
	require.Len(t, rows, len(store.LTE.Bands)+1)
	require.Equal(t, "1", rows[1][0])

	rows, err = f.GetRows(SheetNR)
	require.NoError(t, err)
	require.Len(t, rows, len(store.NR.FR1)+len(store.NR.FR2)+1)
	require.Equal(t, "FR1", rows[1][1])
	require.Equal(t, "FR2", rows[len(rows)-1][1])

	rows, err = f.GetRows(SheetISM)
	require.NoError(t, err)
	require.Len(t, rows, len(store.Part18.ISMBands.Bands)+1)
}

func TestPart15RowsKeepLiteralValues(t *testing.T) {
	store := loadStore(t)
	rows := part15Rows(store.Part15)
	require.Equal(t, "Section", rows[0][0])

	var sawConducted, sawText bool
	for _, row := range rows[1:] {
		if row[0] == "15.207" {
			sawConducted = true
		}
		if _, ok := row[2].(float64); !ok {
			continue
		}
		if s, ok := row[5].(string); ok && s != "" {
			sawText = true
		}
	}
	require.True(t, sawConducted)
	require.True(t, sawText, "a non-numeric limit such as 66-56 should stay text")
}

func TestCISPRRowsIncludeAboveOneGHz(t *testing.T) {
	store := loadStore(t)
	rows := cisprRows(store.CISPR)

	var above bool
	for _, row := range rows[1:] {
		if row[3] == "radiated above 1 GHz" {
			above = true
		}
	}
	require.True(t, above)
}

func TestWorkbookEmptyStore(t *testing.T) {
	f, err := Workbook(&refdata.Store{})
	require.NoError(t, err)
	defer f.Close()

	for _, sheet := range Sheets {
		rows, err := f.GetRows(sheet)
		require.NoError(t, err)
		require.Len(t, rows, 1, sheet)
	}
}
