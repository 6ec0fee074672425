package hubclient

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aihubhq/aihub/internal/domain"
)

type recordingOpener struct {
	opened []string
}

func (o *recordingOpener) Open(url string) error {
	o.opened = append(o.opened, url)
	return nil
}

func TestSession_ExecuteTool_InsufficientCredits(t *testing.T) {
	var executeCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/credits.get", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, http.StatusOK, map[string]int{"credits": 2})
	})
	mux.HandleFunc("/api/billing.checkout", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		writeTestJSON(w, http.StatusOK, map[string]string{"checkout_url": "https://buy.stripe.com/test?client_reference_id=user-1"})
	})
	mux.HandleFunc("/api/executions.execute", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&executeCalls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	opener := &recordingOpener{}
	session := NewSession(newTestClient(t, mux), opener)

	_, err := session.ExecuteTool(context.Background(), &domain.Tool{ID: "tool-1", CreditCost: 5}, nil)

	var shortfall *domain.ErrInsufficientCredits
	require.ErrorAs(t, err, &shortfall)
	assert.Equal(t, 5, shortfall.Required)
	assert.Equal(t, 2, shortfall.Available)
	assert.Equal(t, int32(0), atomic.LoadInt32(&executeCalls))
	assert.Equal(t, []string{"https://buy.stripe.com/test?client_reference_id=user-1"}, opener.opened)

	credits, loaded := session.Credits()
	assert.True(t, loaded)
	assert.Equal(t, 2, credits)
}

func TestSession_ExecuteTool_ServerRejectsStaleBalance(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/credits.get", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, http.StatusOK, map[string]int{"credits": 10})
	})
	mux.HandleFunc("/api/executions.execute", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, http.StatusPaymentRequired, map[string]interface{}{
			"error":        "Insufficient credits",
			"checkout_url": "https://buy.stripe.com/test",
			"required":     5,
			"available":    1,
		})
	})

	opener := &recordingOpener{}
	session := NewSession(newTestClient(t, mux), opener)

	_, err := session.ExecuteTool(context.Background(), &domain.Tool{ID: "tool-1", CreditCost: 5}, map[string]interface{}{"q": "x"})

	var shortfall *domain.ErrInsufficientCredits
	require.ErrorAs(t, err, &shortfall)
	assert.Equal(t, 1, shortfall.Available)
	assert.Equal(t, []string{"https://buy.stripe.com/test"}, opener.opened)

	credits, _ := session.Credits()
	assert.Equal(t, 1, credits)
}

func TestSession_ExecuteTool_Success(t *testing.T) {
	var balance int32 = 10
	mux := http.NewServeMux()
	mux.HandleFunc("/api/credits.get", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, http.StatusOK, map[string]int32{"credits": atomic.LoadInt32(&balance)})
	})
	mux.HandleFunc("/api/executions.execute", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&balance, -5)
		writeTestJSON(w, http.StatusOK, map[string]interface{}{
			"execution": map[string]interface{}{
				"id":           "exec-1",
				"tool_id":      "tool-1",
				"status":       "completed",
				"credits_used": 5,
				"output_data":  map[string]string{"summary": "done"},
				"output_shape": "object",
			},
		})
	})

	opener := &recordingOpener{}
	session := NewSession(newTestClient(t, mux), opener)

	view, err := session.ExecuteTool(context.Background(), &domain.Tool{ID: "tool-1", CreditCost: 5}, nil)
	require.NoError(t, err)
	assert.Equal(t, "exec-1", view.ID)
	assert.Equal(t, domain.ExecutionStatusCompleted, view.Status)
	assert.Equal(t, domain.OutputShapeObject, view.OutputShape)
	assert.Empty(t, opener.opened)

	credits, _ := session.Credits()
	assert.Equal(t, 5, credits)
}

func TestSession_CreditsBeforeRefresh(t *testing.T) {
	session := NewSession(NewClient("http://localhost", ""), nil)
	credits, loaded := session.Credits()
	assert.False(t, loaded)
	assert.Zero(t, credits)
}
