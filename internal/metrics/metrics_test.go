package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistered(t *testing.T) {
	require.NotNil(t, HandshakesInitiated)
	require.NotNil(t, HandshakesCompleted)
	require.NotNil(t, HandshakesFailed)
	require.NotNil(t, HandshakeDuration)
	require.NotNil(t, SessionsActive)
	require.NotNil(t, SessionsEvicted)
	require.NotNil(t, MessagesSent)
	require.NotNil(t, MessagesReceived)
	require.NotNil(t, BytesSent)
	require.NotNil(t, BytesReceived)
}

func TestHandshakesInitiated_IncrementsByRole(t *testing.T) {
	before := testutil.ToFloat64(HandshakesInitiated.WithLabelValues("client"))
	HandshakesInitiated.WithLabelValues("client").Inc()
	after := testutil.ToFloat64(HandshakesInitiated.WithLabelValues("client"))
	assert.Equal(t, before+1, after)
}

func TestSessionsActive_GaugeTracksUpDown(t *testing.T) {
	SessionsActive.Set(0)
	SessionsActive.Inc()
	SessionsActive.Inc()
	assert.Equal(t, float64(2), testutil.ToFloat64(SessionsActive))
	SessionsActive.Dec()
	assert.Equal(t, float64(1), testutil.ToFloat64(SessionsActive))
}

func TestHandler_ServesRegisteredCollectors(t *testing.T) {
	h := Handler()
	require.NotNil(t, h)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "adatp_sessions_active")
}
