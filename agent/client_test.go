package agent_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/RyanRen-Tamar/GameFloaty/agent"
	"github.com/RyanRen-Tamar/GameFloaty/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClientAsk(t *testing.T) {
	t.Run("RoundTripsContract", func(t *testing.T) {
		var got agent.Request
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			json.NewEncoder(w).Encode(agent.Response{
				Response:       "Margit is weak to jump attacks.",
				ConversationID: got.ConversationID,
			})
		}))
		defer srv.Close()

		client := agent.NewHTTPClient(srv.URL)
		resp, err := client.Ask(context.Background(), &agent.Request{
			UserID:         "u1",
			ConversationID: "c1",
			Query:          "how to beat margit",
			Context:        map[string]string{"screen_text": "MARGIT, THE FELL OMEN"},
		})
		require.NoError(t, err)

		assert.Equal(t, "u1", got.UserID)
		assert.Equal(t, "c1", got.ConversationID)
		assert.Equal(t, "how to beat margit", got.Query)
		assert.Equal(t, "MARGIT, THE FELL OMEN", got.Context["screen_text"])
		assert.Equal(t, "Margit is weak to jump attacks.", resp.Response)
		assert.Equal(t, "c1", resp.ConversationID)
	})

	t.Run("OmitsEmptyContext", func(t *testing.T) {
		var raw map[string]json.RawMessage
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
			json.NewEncoder(w).Encode(agent.Response{Response: "ok"})
		}))
		defer srv.Close()

		_, err := agent.NewHTTPClient(srv.URL).Ask(context.Background(), &agent.Request{
			UserID:         "u1",
			ConversationID: "c2",
			Query:          "q",
		})
		require.NoError(t, err)
		_, present := raw["context"]
		assert.False(t, present)
	})

	t.Run("EchoesConversationIDWhenServerOmitsIt", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"response": "hello"}`))
		}))
		defer srv.Close()

		resp, err := agent.NewHTTPClient(srv.URL).Ask(context.Background(), &agent.Request{ConversationID: "c3", Query: "q"})
		require.NoError(t, err)
		assert.Equal(t, "c3", resp.ConversationID)
	})

	t.Run("NonOKStatusIsError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := agent.NewHTTPClient(srv.URL).Ask(context.Background(), &agent.Request{Query: "q"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "503")
	})

	t.Run("GarbageBodyIsError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer srv.Close()

		_, err := agent.NewHTTPClient(srv.URL).Ask(context.Background(), &agent.Request{Query: "q"})
		assert.Error(t, err)
	})
}

func TestNew(t *testing.T) {
	t.Run("NilConfig", func(t *testing.T) {
		_, err := agent.New(nil)
		assert.ErrorIs(t, err, agent.ErrNoClient)
	})

	t.Run("EmptyConfig", func(t *testing.T) {
		_, err := agent.New(&models.AgentConfig{})
		assert.ErrorIs(t, err, agent.ErrNoClient)
	})

	t.Run("EndpointWins", func(t *testing.T) {
		client, err := agent.New(&models.AgentConfig{Endpoint: "http://localhost:9090/ask", Provider: "ollama"})
		require.NoError(t, err)
		assert.Equal(t, "http", client.Name())
	})
}
