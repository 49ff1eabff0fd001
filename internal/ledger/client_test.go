package ledger_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/docvision/internal/ledger"
	"github.com/rezonia/docvision/internal/model"
)

// gatewayStub answers like the ledger gateway: POST {base}/{token}/v1/{endpoint},
// JSON envelope {"ok": bool, "result": ...}.
type gatewayStub struct {
	handlers map[string]func(t *testing.T, body []byte) (int, string)
	calls    atomic.Int64
}

func newGatewayStub(t *testing.T) (*gatewayStub, *ledger.Client) {
	stub := &gatewayStub{
		handlers: make(map[string]func(t *testing.T, body []byte) (int, string)),
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stub.calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)

		// Path is /{token}/v1/{endpoint}
		const prefix = "/test-token/v1/"
		require.True(t, len(r.URL.Path) > len(prefix), "unexpected path %s", r.URL.Path)
		assert.Equal(t, prefix, r.URL.Path[:len(prefix)])
		endpoint := r.URL.Path[len(prefix):]

		handler, ok := stub.handlers[endpoint]
		require.True(t, ok, "no handler for endpoint %s", endpoint)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		status, response := handler(t, body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)

	client := ledger.NewClient("test-token", ledger.WithBaseURL(srv.URL))
	return stub, client
}

func (s *gatewayStub) on(endpoint, response string) {
	s.handlers[endpoint] = func(t *testing.T, body []byte) (int, string) {
		return http.StatusOK, response
	}
}

func TestClient_MatchItem(t *testing.T) {
	stub, client := newGatewayStub(t)
	stub.handlers["Item/Match"] = func(t *testing.T, body []byte) (int, string) {
		var payload struct {
			Type string `json:"type"`
			Data []struct {
				Index string `json:"index"`
				Value string `json:"value"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "Barcode", payload.Type)
		require.Len(t, payload.Data, 1)
		assert.Equal(t, "0", payload.Data[0].Index)
		assert.Equal(t, "4780000000000", payload.Data[0].Value)

		return http.StatusOK, `{"ok":true,"result":[{"index":"0","item_id":101,"value":"4780000000000"}]}`
	}

	id, found, err := client.MatchItem(context.Background(), model.MatchByBarcode, "4780000000000")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(101), id)
}

func TestClient_MatchItem_NotFound(t *testing.T) {
	stub, client := newGatewayStub(t)
	stub.on("Item/Match", `{"ok":true,"result":[{"index":"0","item_id":0,"value":"999"}]}`)

	id, found, err := client.MatchItem(context.Background(), model.MatchByCode, "999")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, id)
}

func TestClient_MatchItems_BatchLimit(t *testing.T) {
	_, client := newGatewayStub(t)

	queries := make([]ledger.MatchQuery, 251)
	_, err := client.MatchItems(context.Background(), model.MatchByCode, queries)

	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "queries", verr.Field)
}

func TestClient_EnvelopeError(t *testing.T) {
	stub, client := newGatewayStub(t)
	stub.on("Stock/Get", `{"ok":false,"result":{"error":"InvalidToken","description":"token expired"}}`)

	_, err := client.Stocks(context.Background())

	var rerr *model.RemoteCallError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "Stock/Get", rerr.Endpoint)
	assert.Equal(t, "InvalidToken", rerr.Code)
	assert.Equal(t, "token expired", rerr.Message)
}

func TestClient_HTTPError(t *testing.T) {
	stub, client := newGatewayStub(t)
	stub.handlers["Currency/Get"] = func(t *testing.T, body []byte) (int, string) {
		return http.StatusBadGateway, `bad gateway`
	}

	_, err := client.Currencies(context.Background())

	var rerr *model.RemoteCallError
	require.ErrorAs(t, err, &rerr)
	assert.Contains(t, rerr.Message, "502")
}

func TestClient_ListShapes(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{
			name:     "bare array result",
			response: `{"ok":true,"result":[{"id":1,"name":"Main"},{"id":2,"name":"Retail"}]}`,
		},
		{
			name:     "nested result object",
			response: `{"ok":true,"result":{"result":[{"id":1,"name":"Main"},{"id":2,"name":"Retail"}]}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub, client := newGatewayStub(t)
			stub.on("Stock/Get", tt.response)

			stocks, err := client.Stocks(context.Background())
			require.NoError(t, err)
			require.Len(t, stocks, 2)
			assert.Equal(t, int64(1), stocks[0].ID)
			assert.Equal(t, "Retail", stocks[1].Name)
		})
	}
}

func TestClient_RefdataCaching(t *testing.T) {
	stub, client := newGatewayStub(t)
	stub.on("Stock/Get", `{"ok":true,"result":[{"id":1,"name":"Main"}]}`)

	_, err := client.Stocks(context.Background())
	require.NoError(t, err)
	_, err = client.Stocks(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), stub.calls.Load(), "second fetch must come from cache")

	client.InvalidateCache()
	_, err = client.Stocks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stub.calls.Load())
}

func TestClient_AddItem(t *testing.T) {
	stub, client := newGatewayStub(t)
	stub.handlers["Item/Add"] = func(t *testing.T, body []byte) (int, string) {
		var fields map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &fields))
		assert.Equal(t, "Widget", fields["name"])
		_, hasCode := fields["code"]
		assert.False(t, hasCode, "absent code must not reach the wire")

		return http.StatusOK, `{"ok":true,"result":{"new_id":345}}`
	}

	id, err := client.AddItem(context.Background(), ledger.ItemFields{
		GroupID: 1, VATID: 2, UnitID: 3, Name: "Widget",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(345), id)
}

func TestClient_AddPurchaseDocument(t *testing.T) {
	stub, client := newGatewayStub(t)
	stub.handlers["DocPurchase/Add"] = func(t *testing.T, body []byte) (int, string) {
		var header map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &header))
		assert.Equal(t, float64(12), header["partner_id"])
		assert.Equal(t, "Exclude", header["vat_calculation_type"])

		return http.StatusOK, `{"ok":true,"result":{"new_id":777}}`
	}

	id, err := client.AddPurchaseDocument(context.Background(), ledger.PurchaseHeader{
		Date:               1700000000,
		PartnerID:          12,
		StockID:            3,
		CurrencyID:         1,
		VATCalculationType: ledger.VATIncludedInSum,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(777), id)
}

func TestClient_AddPurchaseOperations_BareArrayBody(t *testing.T) {
	stub, client := newGatewayStub(t)
	stub.handlers["PurchaseOperation/Add"] = func(t *testing.T, body []byte) (int, string) {
		// The request body must be the bare array, not an object wrapper.
		var ops []map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &ops))
		require.Len(t, ops, 2)
		assert.Equal(t, float64(777), ops[0]["document_id"])
		_, hasPrice := ops[1]["price"]
		assert.False(t, hasPrice, "absent price must not reach the wire")

		return http.StatusOK, `{"ok":true,"result":{"row_affected":2,"ids":[1,2]}}`
	}

	price := decimal.NewFromInt(600)
	posted, err := client.AddPurchaseOperations(context.Background(), []ledger.PurchaseOperation{
		{
			DocumentID: 777,
			ItemID:     101,
			Quantity:   decimal.NewFromInt(2),
			Cost:       decimal.NewFromInt(500),
			Price:      &price,
			VATValue:   decimal.NewFromInt(12),
		},
		{
			DocumentID: 777,
			ItemID:     102,
			Quantity:   decimal.NewFromInt(1),
			Cost:       decimal.NewFromInt(50),
			VATValue:   decimal.NewFromInt(0),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), posted)
}

func TestClient_AddPartner(t *testing.T) {
	stub, client := newGatewayStub(t)
	stub.on("Partner/Add", `{"ok":true,"result":{"new_id":55}}`)

	id, err := client.AddPartner(context.Background(), ledger.PartnerFields{
		Name:        "Supplier LLC",
		GroupID:     2,
		LegalStatus: "legal",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(55), id)
}
