package captioner

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"

	"taulu.fi/dataset-curator/api"
	"taulu.fi/dataset-curator/api/apitype"
	"taulu.fi/dataset-curator/common"
	"taulu.fi/dataset-curator/common/logger"
)

const (
	chatCompletionsPath = "/v1/chat/completions"
	modelsPath          = "/v1/models"

	payloadJpegQuality = 90
)

// LmStudioCaptioner talks to an LM Studio instance (or any OpenAI
// compatible server) over its chat completions endpoint, sending the
// image inline as a base64 JPEG data URL.
type LmStudioCaptioner struct {
	baseURL           string
	model             string
	prompt            string
	maxTokens         int
	maxImageDimension int
	timeout           time.Duration
	client            *http.Client

	api.Captioner
}

func NewLmStudioCaptioner(config common.CaptionerConfig) api.Captioner {
	return &LmStudioCaptioner{
		baseURL:           strings.TrimRight(config.BaseURL, "/"),
		model:             config.Model,
		prompt:            config.Prompt,
		maxTokens:         config.MaxTokens,
		maxImageDimension: config.MaxImageDimension,
		timeout:           time.Duration(config.TimeoutSecs) * time.Second,
		client:            &http.Client{},
	}
}

type chatRequest struct {
	Model     string        `json:"model,omitempty"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (s *LmStudioCaptioner) Caption(ctx context.Context, imagePath string) (string, error) {
	dataURL, err := s.encodeImage(imagePath)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(&chatRequest{
		Model: s.model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: s.prompt},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
			},
		}},
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("could not encode caption request: %w", apitype.ErrExternalFailure)
	}

	requestCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		requestCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	request, err := http.NewRequestWithContext(requestCtx, http.MethodPost, s.baseURL+chatCompletionsPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("invalid caption endpoint '%s': %w", s.baseURL, apitype.ErrExternalFailure)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := s.client.Do(request)
	if err != nil {
		if isTimeout(err) {
			return "", fmt.Errorf("caption request timed out after %s: %w", s.timeout, apitype.ErrTimeout)
		}
		return "", fmt.Errorf("caption request failed: %s: %w", err, apitype.ErrExternalFailure)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return "", fmt.Errorf("could not read caption response: %w", apitype.ErrExternalFailure)
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return "", fmt.Errorf("caption server returned %d: %s: %w",
			response.StatusCode, truncateForLog(responseBody), apitype.ErrExternalFailure)
	}

	var parsed chatResponse
	if err := json.Unmarshal(responseBody, &parsed); err != nil {
		return "", fmt.Errorf("could not parse caption response: %w", apitype.ErrExternalFailure)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("caption response had no choices: %w", apitype.ErrExternalFailure)
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// TestConnection checks that the server is reachable and lists the loaded
// model identifiers.
func (s *LmStudioCaptioner) TestConnection(ctx context.Context) ([]string, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+modelsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid caption endpoint '%s': %w", s.baseURL, apitype.ErrExternalFailure)
	}

	response, err := s.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("caption server not reachable: %s: %w", err, apitype.ErrExternalFailure)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, fmt.Errorf("caption server returned %d: %w", response.StatusCode, apitype.ErrExternalFailure)
	}

	var parsed struct {
		Data []struct {
			Id string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(response.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("could not parse model list: %w", apitype.ErrExternalFailure)
	}

	var models []string
	for _, model := range parsed.Data {
		models = append(models, model.Id)
	}
	return models, nil
}

// encodeImage loads the image, scales its longest side down to the
// configured maximum and re-encodes it as a base64 JPEG data URL.
func (s *LmStudioCaptioner) encodeImage(imagePath string) (string, error) {
	loadedImage, err := imaging.Open(imagePath, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("could not load '%s': %s: %w", imagePath, err, apitype.ErrDecodeFailure)
	}

	loadedImage = s.downscale(loadedImage)

	buffer := &bytes.Buffer{}
	if err := jpeg.Encode(buffer, loadedImage, &jpeg.Options{Quality: payloadJpegQuality}); err != nil {
		return "", fmt.Errorf("could not encode '%s': %w", imagePath, apitype.ErrDecodeFailure)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buffer.Bytes()), nil
}

func (s *LmStudioCaptioner) downscale(loadedImage image.Image) image.Image {
	if s.maxImageDimension <= 0 {
		return loadedImage
	}
	bounds := loadedImage.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= s.maxImageDimension && height <= s.maxImageDimension {
		return loadedImage
	}

	logger.Trace.Printf("Downscaling %dx%d payload to fit %d", width, height, s.maxImageDimension)
	if width >= height {
		return resize.Resize(uint(s.maxImageDimension), 0, loadedImage, resize.Lanczos3)
	}
	return resize.Resize(0, uint(s.maxImageDimension), loadedImage, resize.Lanczos3)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncateForLog(body []byte) string {
	const maxLength = 200
	text := strings.TrimSpace(string(body))
	if len(text) > maxLength {
		return text[:maxLength] + "..."
	}
	return text
}
