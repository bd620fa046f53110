package infrastructure

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWeatherClientCurrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Rome", r.URL.Query().Get("q"))
		require.Equal(t, "wkey", r.URL.Query().Get("appid"))
		require.Equal(t, "metric", r.URL.Query().Get("units"))
		_, _ = io.WriteString(w, `{"weather":[{"description":"clear sky"}],"main":{"temp":21.5}}`)
	}))
	defer srv.Close()

	c := NewWeatherClient("wkey", WithBaseURL(srv.URL))
	report, err := c.Current(context.Background(), "Rome")
	require.NoError(t, err)
	require.Equal(t, "clear sky", report.Description)
	require.Equal(t, 21.5, report.TempC)
}

func TestWeatherClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"cod":"404","message":"city not found"}`)
	}))
	defer srv.Close()

	c := NewWeatherClient("wkey", WithBaseURL(srv.URL))
	_, err := c.Current(context.Background(), "Atlantis")
	require.Error(t, err)

	var statusErr *HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusNotFound, statusErr.HTTPStatusCode())
	require.Contains(t, statusErr.Body, "city not found")
}

func TestWeatherClientRequiresStatusOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = io.WriteString(w, `{"weather":[{"description":"clear sky"}],"main":{"temp":21.5}}`)
	}))
	defer srv.Close()

	_, err := NewWeatherClient("wkey", WithBaseURL(srv.URL)).Current(context.Background(), "Rome")
	var statusErr *HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusAccepted, statusErr.StatusCode)
}

func TestTransportErrorsHideAPIKeys(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	opts := []Option{WithBaseURL(srv.URL), WithTimeout(50 * time.Millisecond)}

	_, err := NewWeatherClient("SECRET-WEATHER-KEY", opts...).Current(context.Background(), "Rome")
	require.Error(t, err)
	require.NotContains(t, err.Error(), "SECRET-WEATHER-KEY")
	require.Contains(t, err.Error(), srv.URL)

	_, err = NewNewsClient("SECRET-NEWS-KEY", "us", opts...).Headlines(context.Background(), 5)
	require.Error(t, err)
	require.NotContains(t, err.Error(), "SECRET-NEWS-KEY")
}

func TestWeatherClientEmptyConditions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"weather":[],"main":{"temp":3}}`)
	}))
	defer srv.Close()

	_, err := NewWeatherClient("k", WithBaseURL(srv.URL)).Current(context.Background(), "Oslo")
	require.Error(t, err)
}

func TestNewsClientHeadlinesLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "gb", r.URL.Query().Get("country"))
		require.Equal(t, "nkey", r.URL.Query().Get("apiKey"))
		_, _ = io.WriteString(w, `{"status":"ok","articles":[
			{"title":"one"},{"title":"two"},{"title":"three"},
			{"title":"four"},{"title":"five"},{"title":"six"}]}`)
	}))
	defer srv.Close()

	c := NewNewsClient("nkey", "gb", WithBaseURL(srv.URL))
	titles, err := c.Headlines(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, []string{"one", "two", "three", "four", "five"}, titles)
}

func TestNewsClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"error","message":"apiKey invalid"}`)
	}))
	defer srv.Close()

	_, err := NewNewsClient("bad", "", WithBaseURL(srv.URL)).Headlines(context.Background(), 5)
	require.ErrorContains(t, err, "apiKey invalid")
}

func TestTranslateClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "hello", r.URL.Query().Get("q"))
		require.Equal(t, "en|fr", r.URL.Query().Get("langpair"))
		_, _ = io.WriteString(w, `{"responseData":{"translatedText":"bonjour"},"responseStatus":200}`)
	}))
	defer srv.Close()

	got, err := NewTranslateClient(WithBaseURL(srv.URL)).Translate(context.Background(), "hello", "fr")
	require.NoError(t, err)
	require.Equal(t, "bonjour", got)
}

func TestTranslateClientRejectsNon200ResponseStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"responseData":{"translatedText":"INVALID LANGUAGE PAIR"},"responseStatus":"403","responseDetails":"bad pair"}`)
	}))
	defer srv.Close()

	_, err := NewTranslateClient(WithBaseURL(srv.URL)).Translate(context.Background(), "hello", "zz")
	require.ErrorContains(t, err, "403")
}

func TestVisionClientLabels(t *testing.T) {
	image := []byte{0x89, 'P', 'N', 'G'}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Key ckey", r.Header.Get("Authorization"))

		var req visionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Inputs, 1)
		require.Equal(t, base64.StdEncoding.EncodeToString(image), req.Inputs[0].Data.Image.Base64)

		_, _ = io.WriteString(w, `{"outputs":[{"data":{"concepts":[{"name":"dog","value":0.975},{"name":"grass","value":0.5}]}}]}`)
	}))
	defer srv.Close()

	labels, err := NewVisionClient("ckey", WithBaseURL(srv.URL)).Labels(context.Background(), image)
	require.NoError(t, err)
	require.Len(t, labels, 2)
	require.Equal(t, "dog (97.50%)", labels[0].String())
	require.Equal(t, "grass", labels[1].Name)
}

func TestVisionClientNoOutputs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"outputs":[]}`)
	}))
	defer srv.Close()

	_, err := NewVisionClient("ckey", WithBaseURL(srv.URL)).Labels(context.Background(), []byte("x"))
	require.Error(t, err)
}

func TestHTTPStatusErrorBodyIsCapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, strings.Repeat("x", maxErrorBody*2))
	}))
	defer srv.Close()

	_, err := NewNewsClient("k", "us", WithBaseURL(srv.URL)).Headlines(context.Background(), 5)
	var statusErr *HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	require.Len(t, statusErr.Body, maxErrorBody)
}

func TestGeminiClientGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.URL.Path, "gemini-1.5-flash:generateContent")
		body, _ := io.ReadAll(r.Body)
		require.Contains(t, string(body), "hello model")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Hi there"}]}}]}`)
	}))
	defer srv.Close()

	c := NewGeminiClient("gkey", "", WithGeminiBaseURL(srv.URL), WithGeminiHTTPClient(srv.Client()))
	require.Equal(t, DefaultGeminiModel, c.Model())

	got, err := c.Generate(context.Background(), "hello model")
	require.NoError(t, err)
	require.Equal(t, "Hi there", got)
}

func TestGeminiClientMissingKey(t *testing.T) {
	c := NewGeminiClient("", "gemini-1.5-flash")
	_, err := c.Generate(context.Background(), "hi")
	require.ErrorContains(t, err, "API key")
}

func TestGeminiClientUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"code":500,"message":"boom","status":"INTERNAL"}}`)
	}))
	defer srv.Close()

	c := NewGeminiClient("gkey", "", WithGeminiBaseURL(srv.URL), WithGeminiHTTPClient(srv.Client()))
	_, err := c.Generate(context.Background(), "hi")
	require.Error(t, err)
}
