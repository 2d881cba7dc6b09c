package tts

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"
)

const azureOutputFormat = "riff-24khz-16bit-mono-pcm"

// Azure synthesizes speech through the Azure Cognitive Services REST
// endpoint. One call per text chunk; the caller is responsible for keeping
// chunks under the service limit with SplitText.
type Azure struct {
	endpoint string
	key      string
	language string
	client   *http.Client
}

// NewAzure creates a client for the given region and subscription key.
func NewAzure(region, key, language string) *Azure {
	if language == "" {
		language = "en-US"
	}
	return &Azure{
		endpoint: fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", region),
		key:      key,
		language: language,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

// Synthesize sends one SSML request and returns the WAV payload.
func (a *Azure) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	body := a.ssml(text, voice)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", a.key)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", azureOutputFormat)
	req.Header.Set("User-Agent", "doclens")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("azure tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("azure tts returned %d: %s", resp.StatusCode, detail)
	}
	return io.ReadAll(resp.Body)
}

func (a *Azure) ssml(text, voice string) []byte {
	var escaped bytes.Buffer
	_ = xml.EscapeText(&escaped, []byte(text)) // cannot fail on a bytes.Buffer

	return []byte(fmt.Sprintf(
		`<speak version='1.0' xml:lang='%s'><voice xml:lang='%s' name='%s'>%s</voice></speak>`,
		a.language, a.language, voice, escaped.String()))
}

var _ Synthesizer = (*Azure)(nil)
