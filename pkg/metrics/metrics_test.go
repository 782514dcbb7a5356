package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveFetch(t *testing.T) {
	ok := testutil.ToFloat64(FetchTotal.WithLabelValues(ResultOK))
	failed := testutil.ToFloat64(FetchTotal.WithLabelValues(ResultFailed))

	ObserveFetch(time.Now(), nil)
	ObserveFetch(time.Now(), errors.New("offline"))
	ObserveFetch(time.Now(), errors.New("offline"))

	assert.Equal(t, ok+1, testutil.ToFloat64(FetchTotal.WithLabelValues(ResultOK)))
	assert.Equal(t, failed+2, testutil.ToFloat64(FetchTotal.WithLabelValues(ResultFailed)))
}

func TestObserveLayout(t *testing.T) {
	added := testutil.ToFloat64(MergeAddedTotal)

	ObserveLayout(4, 10, 9)

	assert.Equal(t, added+4, testutil.ToFloat64(MergeAddedTotal))
	assert.Equal(t, 10.0, testutil.ToFloat64(Nodes))
	assert.Equal(t, 9.0, testutil.ToFloat64(Edges))
}

func TestHandler(t *testing.T) {
	ObserveLayout(0, 1, 0)

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "tangleview_nodes 1")
}
