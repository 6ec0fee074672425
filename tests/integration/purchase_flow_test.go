package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/aihubhq/aihub/internal/domain"
	"github.com/aihubhq/aihub/internal/service"
	"github.com/aihubhq/aihub/pkg/hubclient"
	"github.com/aihubhq/aihub/pkg/logger"
	"github.com/aihubhq/aihub/tests/testutil"
)

const (
	testUserID = "it-user-1"
	testEmail  = "ann@example.com"
	leadToolID = "lead-finder"
)

func leadTool(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, testUserID, body["user_id"])
		assert.Equal(t, leadToolID, body["tool_id"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"leads": []map[string]string{
				{"name": "Ann Lee", "email": "ann@acme.com", "company_name": "Acme"},
				{"name": "Bob Stone", "email": "bob@globex.com", "company_name": "Globex"},
				{"name": "Cy Park", "email": "cy@initech.com", "company_name": "Initech"},
				{"name": "Di Moss", "email": "di@umbrella.com", "company_name": "Umbrella"},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func seedTool(t *testing.T, env *testutil.Environment, webhookURL string) {
	t.Helper()
	_, err := env.DB.Exec(`
		INSERT INTO tools (id, name, description, category, credit_cost, execution_type, input_schema, webhook_link)
		VALUES ($1, 'Lead Finder', 'Finds leads', 'Sales', 5, 'webhook', '[]'::jsonb, $2)`,
		leadToolID, webhookURL)
	require.NoError(t, err)
}

func bearerToken(t *testing.T, env *testutil.Environment) string {
	t.Helper()
	auth, err := service.NewAuthService(service.AuthServiceConfig{
		JWTSecret: env.Config.Security.JWTSecret,
		JWTIssuer: env.Config.Security.JWTIssuer,
		Logger:    logger.NewTestLogger(t),
	})
	require.NoError(t, err)

	token, err := auth.GenerateToken(testUserID, testEmail, time.Hour)
	require.NoError(t, err)
	return token
}

func deliverCheckoutEvent(t *testing.T, env *testutil.Environment) {
	t.Helper()
	body := fmt.Sprintf(`{
		"id": "evt_it_1",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_it_1",
			"object": "checkout.session",
			"client_reference_id": %q,
			"customer": "cus_it_1",
			"customer_details": {"email": %q}
		}}
	}`, testUserID, testEmail)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(body),
		Secret:    testutil.StripeWebhookSecret,
		Timestamp: time.Now(),
	})

	req, err := http.NewRequest(http.MethodPost, env.Server.URL+"/webhooks/stripe", strings.NewReader(string(signed.Payload)))
	require.NoError(t, err)
	req.Header.Set("Stripe-Signature", signed.Header)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

type openedURLs struct {
	mu   sync.Mutex
	urls []string
}

func (o *openedURLs) Open(url string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.urls = append(o.urls, url)
	return nil
}

func (o *openedURLs) list() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.urls...)
}

func TestPurchaseExecuteAndIngest(t *testing.T) {
	env := testutil.SetupEnvironment(t)
	seedTool(t, env, leadTool(t).URL)

	ctx := context.Background()
	client := hubclient.NewClient(env.Server.URL, bearerToken(t, env))
	opener := &openedURLs{}
	session := hubclient.NewSession(client, opener)

	tool, err := client.GetTool(ctx, leadToolID)
	require.NoError(t, err)
	assert.Equal(t, 5, tool.CreditCost)

	// A new user starts with no credits and is sent to checkout
	_, err = session.ExecuteTool(ctx, tool, map[string]interface{}{})
	var shortfall *domain.ErrInsufficientCredits
	require.True(t, errors.As(err, &shortfall))
	assert.Equal(t, 5, shortfall.Required)
	assert.Equal(t, 0, shortfall.Available)

	opened := opener.list()
	require.Len(t, opened, 1)
	assert.True(t, strings.HasPrefix(opened[0], testutil.PaymentLink))
	assert.Contains(t, opened[0], "client_reference_id="+testUserID)

	deliverCheckoutEvent(t, env)
	// Stripe retries deliveries; the second copy must not add credits again
	deliverCheckoutEvent(t, env)

	credits, err := session.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, testutil.CreditsPerPurchase, credits)

	view, err := session.ExecuteTool(ctx, tool, map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, domain.ExecutionStatusCompleted, view.Status)
	assert.Equal(t, domain.OutputShapeLeadArray, view.OutputShape)

	balance, ok := session.Credits()
	require.True(t, ok)
	assert.Equal(t, testutil.CreditsPerPurchase-5, balance)

	selection, err := hubclient.NewLeadSelectionForExecution(view)
	require.NoError(t, err)
	selection.Toggle(1)
	selection.Toggle(3)

	result, err := selection.AddSelected(ctx, client, []string{"conference"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Count)

	query := domain.DefaultContactQuery("")
	query.Tags = []string{"conference"}
	contacts, err := client.ListContacts(ctx, query)
	require.NoError(t, err)
	require.Len(t, contacts, 2)

	var names []string
	for _, c := range contacts {
		require.NotNil(t, c.Name)
		names = append(names, *c.Name)
	}
	assert.ElementsMatch(t, []string{"Bob Stone", "Di Moss"}, names)
	for _, c := range contacts {
		assert.Equal(t, []string{"conference"}, c.Tags)
	}
}

func TestContactsViewAgainstServer(t *testing.T) {
	env := testutil.SetupEnvironment(t)
	client := hubclient.NewClient(env.Server.URL, bearerToken(t, env))

	results := make(chan hubclient.ContactsResult, 4)
	view := hubclient.NewClientContactsView(client, func(r hubclient.ContactsResult) {
		results <- r
	}, hubclient.WithDebounce(20*time.Millisecond))
	defer view.Close()

	view.SetSearch("nobody")

	select {
	case r := <-results:
		require.NoError(t, r.Err)
		assert.Equal(t, "nobody", r.Query.Search)
		assert.Empty(t, r.Contacts)
	case <-time.After(5 * time.Second):
		t.Fatal("contacts view never published a result")
	}
}
