package sheet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sampleSheet = `Name,Nepali Name,Category,Price,Description,Benefits,Image
Tulsi,तुलसी,Herb,450,Holy basil,Immunity,https://img/tulsi.jpg
,,,,,,
Kafal,काफल,Local Fruits,"1,200",Wild berry,Vitamin C,
Timur,टिमुर,Jadibuti,abc,Sichuan pepper,Digestion,https://img/timur.jpg
`

func TestParse(t *testing.T) {
	products, err := Parse(strings.NewReader(sampleSheet))
	require.NoError(t, err)
	require.Len(t, products, 3)

	assert.Equal(t, domain.Product{
		ID:          "sheet-1",
		Name:        "Tulsi",
		LocalName:   "तुलसी",
		Category:    "Herb",
		Price:       450,
		Description: "Holy basil",
		Benefits:    "Immunity",
		ImageURL:    "https://img/tulsi.jpg",
	}, products[0])

	assert.Equal(t, "sheet-3", products[1].ID, "blank row keeps its index")
	assert.Equal(t, int64(1200), products[1].Price)
	assert.Equal(t, PlaceholderImage, products[1].ImageURL)

	assert.Equal(t, int64(0), products[2].Price, "unparsable price")
}

func TestParse_ShortRowsAndHeaderOnly(t *testing.T) {
	products, err := Parse(strings.NewReader("h1,h2\nOnly Name\n"))
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Only Name", products[0].Name)
	assert.Equal(t, PlaceholderImage, products[0].ImageURL)

	products, err = Parse(strings.NewReader("Name,Nepali Name\n"))
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestParsePrice(t *testing.T) {
	tests := map[string]int64{
		"450":    450,
		"  ":     0,
		"-5":     0,
		"12.75":  12,
		"2,500":  2500,
		"Rs 300": 0,
	}
	for in, want := range tests {
		assert.Equal(t, want, parsePrice(strings.TrimSpace(in)), "input %q", in)
	}
}

func TestFeed_List(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(sampleSheet))
	}))
	defer srv.Close()

	feed := NewFeedWithClient(srv.URL, srv.Client(), zap.NewNop())
	products, err := feed.List(context.Background())

	require.NoError(t, err)
	assert.Len(t, products, 3)
	assert.Equal(t, "sheet", feed.Name())
}

func TestFeed_ListServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusInternalServerError)
	}))
	defer srv.Close()

	feed := NewFeedWithClient(srv.URL, srv.Client(), zap.NewNop())
	_, err := feed.List(context.Background())

	assert.ErrorContains(t, err, "status 500")
}
