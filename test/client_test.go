//go:build integration_test || all_tests

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/stretchr/testify/require"

	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/auth"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/users"
)

// do sends a request to the running service and returns the status code and the body.
// A non nil body is sent as JSON.
func (s *IntegrationTestSuite) do(ctx context.Context, method, path, token string, body any) (int, []byte) {
	t := s.T()

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, reqBody)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(auth.SessionTokenHeader, token)
	}

	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, respBytes
}

// signupAndLogin registers username and returns a session token and the user id.
func (s *IntegrationTestSuite) signupAndLogin(ctx context.Context, username string) (string, int) {
	t := s.T()
	creds := users.Credentials{Username: username, Password: "testpass"}

	status, body := s.do(ctx, http.MethodPost, "/signup", "", creds)
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = s.do(ctx, http.MethodPost, "/login", "", creds)
	require.Equal(t, http.StatusOK, status, string(body))

	var loginResp users.LoginResponse
	require.NoError(t, json.Unmarshal(body, &loginResp))
	require.NotEmpty(t, loginResp.Token)
	return loginResp.Token, loginResp.User.ID
}
