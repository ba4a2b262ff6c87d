package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/dataprocessing"
	apperrors "salespulse/internal/errors"
	"salespulse/internal/loader"
)

const exportCSV = `Order Date,Restaurant Name,Dish Name,Price (INR),Rating,Rating Count,Category,City,State
15-01-25,Biryani House,Chicken Biryani,320,4.5,120,Lunch,Bengaluru,Karnataka
16-01-25,Dosa Corner,Masala Dosa,110,4.2,80,Breakfast,Chennai,Tamil Nadu
19-01-25,Curry Leaf,Fish Curry,260,4.6,150,Lunch,Kochi,Kerala
`

func newService(t *testing.T, content string) (*DataService, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	svc := NewDataService(path, "",
		loader.NewLoader(nil),
		dataprocessing.NewPipeline(nil, nil),
		dataprocessing.NewSummarizer(nil),
		nil)
	return svc, path
}

func TestDataService_Session(t *testing.T) {
	svc, _ := newService(t, exportCSV)

	session, err := svc.Session(context.Background())
	require.NoError(t, err)

	assert.Len(t, session.Table.Records, 3)
	assert.Equal(t, 3, session.KPIs.TotalOrders)
	assert.InDelta(t, 690.0, session.KPIs.TotalSales, 1e-9)
	assert.NotEmpty(t, session.Fingerprint)
	assert.Equal(t, session.Fingerprint, session.Table.Fingerprint)
	assert.NotNil(t, session.Views)
}

func TestDataService_CachesByFingerprint(t *testing.T) {
	svc, _ := newService(t, exportCSV)

	first, err := svc.Session(context.Background())
	require.NoError(t, err)
	second, err := svc.Session(context.Background())
	require.NoError(t, err)

	// Unchanged bytes serve the identical cached session.
	assert.Same(t, first, second)
}

func TestDataService_ReprocessesChangedFile(t *testing.T) {
	svc, path := newService(t, exportCSV)

	first, err := svc.Session(context.Background())
	require.NoError(t, err)

	updated := exportCSV + "20-01-25,Green Bowl,Paneer Tikka,210,4.1,60,Dinner,Hyderabad,Telangana\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	second, err := svc.Session(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.Fingerprint, second.Fingerprint)
	assert.Len(t, second.Table.Records, 4)
}

func TestDataService_Invalidate(t *testing.T) {
	svc, _ := newService(t, exportCSV)

	first, err := svc.Session(context.Background())
	require.NoError(t, err)

	svc.Invalidate()

	second, err := svc.Session(context.Background())
	require.NoError(t, err)

	// Same bytes, so a fresh but equivalent session.
	assert.NotSame(t, first, second)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
}

func TestDataService_MissingFile(t *testing.T) {
	svc := NewDataService(filepath.Join(t.TempDir(), "absent.csv"), "",
		loader.NewLoader(nil),
		dataprocessing.NewPipeline(nil, nil),
		dataprocessing.NewSummarizer(nil),
		nil)

	_, err := svc.Session(context.Background())
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrTypeStorage, appErr.Type)
}

func TestFingerprint_Deterministic(t *testing.T) {
	a := Fingerprint([]byte("hello"))
	b := Fingerprint([]byte("hello"))
	c := Fingerprint([]byte("world"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
