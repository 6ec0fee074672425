package http

import (
	"net/http"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/aihubhq/aihub/internal/domain"
	"github.com/aihubhq/aihub/internal/domain/mocks"
)

func TestToolHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service := mocks.NewMockToolService(ctrl)
	mux := http.NewServeMux()
	NewToolHandler(service, setupMockLogger(ctrl)).RegisterRoutes(mux)

	t.Run("list by category", func(t *testing.T) {
		service.EXPECT().List(gomock.Any(), domain.ListToolsRequest{Category: "sales"}).
			Return([]*domain.Tool{{ID: "tool-1", Name: "Lead Finder", WebhookLink: "https://secret"}}, nil)

		w := serve(mux, authedRequest(http.MethodGet, "/api/tools.list?category=sales", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Lead Finder")
		assert.NotContains(t, w.Body.String(), "https://secret")
	})

	t.Run("get with form defaults", func(t *testing.T) {
		service.EXPECT().Get(gomock.Any(), "tool-1").Return(&domain.Tool{
			ID: "tool-1",
			InputSchema: []domain.FieldDescriptor{
				{Name: "count", Type: domain.FieldKindNumber, Label: "Count", DefaultValue: float64(10)},
			},
		}, nil)

		w := serve(mux, authedRequest(http.MethodGet, "/api/tools.get?id=tool-1", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		values := decodeBody(t, w)["initial_values"].(map[string]interface{})
		assert.Equal(t, float64(10), values["count"])
	})

	t.Run("get unknown", func(t *testing.T) {
		service.EXPECT().Get(gomock.Any(), "missing").Return(nil, &domain.ErrNotFound{Entity: "tool", ID: "missing"})

		w := serve(mux, authedRequest(http.MethodGet, "/api/tools.get?id=missing", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "tool not found", decodeBody(t, w)["error"])
	})
}
