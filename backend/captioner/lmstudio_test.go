package captioner

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"taulu.fi/dataset-curator/api/apitype"
	"taulu.fi/dataset-curator/common"
)

func writeTestPng(t *testing.T, width int, height int) string {
	t.Helper()
	imagePath := filepath.Join(t.TempDir(), "image.png")
	file, err := os.Create(imagePath)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	if err := png.Encode(file, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatal(err)
	}
	return imagePath
}

func testConfig(baseURL string) common.CaptionerConfig {
	return common.CaptionerConfig{
		Backend:     "lmstudio",
		BaseURL:     baseURL,
		Model:       "test-model",
		Prompt:      "Describe this image.",
		MaxTokens:   100,
		TimeoutSecs: 10,
	}
}

func TestLmStudioCaptioner_Caption(t *testing.T) {
	a := assert.New(t)

	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.Equal(chatCompletionsPath, r.URL.Path)
		a.Equal("application/json", r.Header.Get("Content-Type"))
		a.Nil(json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(`{"choices":[{"message":{"content":"  1girl, red hair  "}}]}`))
	}))
	defer server.Close()

	sut := NewLmStudioCaptioner(testConfig(server.URL))
	captionText, err := sut.Caption(context.Background(), writeTestPng(t, 8, 8))

	a.Nil(err)
	a.Equal("1girl, red hair", captionText)
	a.Equal("test-model", captured.Model)
	a.Equal(100, captured.MaxTokens)
	a.Equal(1, len(captured.Messages))
	a.Equal("user", captured.Messages[0].Role)
	a.Equal(2, len(captured.Messages[0].Content))
	a.Equal("Describe this image.", captured.Messages[0].Content[0].Text)
	a.True(strings.HasPrefix(captured.Messages[0].Content[1].ImageURL.URL, "data:image/jpeg;base64,"))
}

func TestLmStudioCaptioner_DownscalesPayload(t *testing.T) {
	a := assert.New(t)

	var payloadBounds image.Rectangle
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var request chatRequest
		a.Nil(json.NewDecoder(r.Body).Decode(&request))
		encoded := strings.TrimPrefix(request.Messages[0].Content[1].ImageURL.URL, "data:image/jpeg;base64,")
		raw, err := base64.StdEncoding.DecodeString(encoded)
		a.Nil(err)
		decoded, err := jpeg.Decode(strings.NewReader(string(raw)))
		a.Nil(err)
		payloadBounds = decoded.Bounds()
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	config := testConfig(server.URL)
	config.MaxImageDimension = 4

	sut := NewLmStudioCaptioner(config)
	_, err := sut.Caption(context.Background(), writeTestPng(t, 10, 6))

	a.Nil(err)
	a.Equal(4, payloadBounds.Dx())
	a.LessOrEqual(payloadBounds.Dy(), 3)
}

func TestLmStudioCaptioner_ServerError(t *testing.T) {
	a := assert.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	sut := NewLmStudioCaptioner(testConfig(server.URL))
	_, err := sut.Caption(context.Background(), writeTestPng(t, 8, 8))

	a.ErrorIs(err, apitype.ErrExternalFailure)
	a.Contains(err.Error(), "model not loaded")
}

func TestLmStudioCaptioner_Timeout(t *testing.T) {
	a := assert.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte(`{"choices":[{"message":{"content":"too late"}}]}`))
	}))
	defer server.Close()

	sut := &LmStudioCaptioner{
		baseURL: server.URL,
		prompt:  "Describe this image.",
		timeout: 50 * time.Millisecond,
		client:  &http.Client{},
	}
	_, err := sut.Caption(context.Background(), writeTestPng(t, 8, 8))

	a.ErrorIs(err, apitype.ErrTimeout)
}

func TestLmStudioCaptioner_MissingImage(t *testing.T) {
	a := assert.New(t)

	sut := NewLmStudioCaptioner(testConfig("http://localhost:1"))
	_, err := sut.Caption(context.Background(), filepath.Join(t.TempDir(), "missing.png"))

	a.ErrorIs(err, apitype.ErrDecodeFailure)
}

func TestLmStudioCaptioner_TestConnection(t *testing.T) {
	a := assert.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.Equal(modelsPath, r.URL.Path)
		w.Write([]byte(`{"data":[{"id":"llava-1.5"},{"id":"qwen-vl"}]}`))
	}))
	defer server.Close()

	sut := NewLmStudioCaptioner(testConfig(server.URL)).(*LmStudioCaptioner)
	models, err := sut.TestConnection(context.Background())

	a.Nil(err)
	a.Equal([]string{"llava-1.5", "qwen-vl"}, models)
}
