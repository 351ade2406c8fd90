//go:build integration_test || all_tests

package test

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	workoutsmcp "github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/mcp"
)

type secretTransport struct {
	secret string
	next   http.RoundTripper
}

func (st *secretTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set(workoutsmcp.SecretHeader, st.secret)
	return st.next.RoundTrip(req)
}

func (s *IntegrationTestSuite) TestMCP_Tools() {
	ctx := context.Background()
	t := s.T()

	client := mcp.NewClient(&mcp.Implementation{Name: "integration-test", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{
		Endpoint: serverEndpoint + "/mcp",
		HTTPClient: &http.Client{
			Transport: &secretTransport{secret: testMCPToken, next: http.DefaultTransport},
		},
	}, nil)
	require.NoError(t, err)
	defer session.Close()

	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "list_exercises"})
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Len(t, res.Content, 1)
	assert.Contains(t, res.Content[0].(*mcp.TextContent).Text, "Bench press")

	res, err = session.CallTool(ctx, &mcp.CallToolParams{Name: "get_schema"})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Contains(t, res.Content[0].(*mcp.TextContent).Text, "## userworkoutperformance")

	res, err = session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "get_performance",
		Arguments: map[string]any{"user_id": 1, "workout_id": 0, "exercise_id": 1},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
