package config

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/box-measure/internal/detection"
	"github.com/ironsheep/box-measure/internal/log"
	"github.com/ironsheep/box-measure/internal/measure"
)

func testConfig() *Config {
	cfg := Default()
	cfg.Env = "test"
	cfg.RateLimitRPS = 1000
	cfg.RateLimitBurst = 1000
	return cfg
}

func newTestServer(t *testing.T, cfg *Config, opts ...ServerOption) *Server {
	t.Helper()
	logger := log.Discard()

	base := []ServerOption{
		WithConfig(cfg),
		WithFiber(NewFiber(cfg, logger)),
		WithLogger(logger),
		WithValidator(NewValidator()),
		WithMiddleware(),
	}
	srv, err := NewServer(append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := srv.RegisterHandler(); err != nil {
		t.Fatalf("RegisterHandler: %v", err)
	}
	return srv
}

// scenePNG is a 100x100 box next to a 50x50 marker.
func scenePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 300, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 300; x++ {
			c := color.Color(color.White)
			if (x >= 20 && x < 120 && y >= 40 && y < 140) || (x >= 200 && x < 250 && y >= 60 && y < 110) {
				c = color.Black
			}
			img.Set(x, y, c)
		}
	}
	return encode(t, img)
}

func blankPNG(t *testing.T) []byte {
	t.Helper()
	return encode(t, imaging.New(120, 80, color.White))
}

func encode(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func jsonRequest(t *testing.T, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/processar-imagem", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, image []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", "photo.png")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(image); err != nil {
		t.Fatal(err)
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/processar-imagem", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func do(t *testing.T, srv *Server, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := srv.App().Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("response is not JSON: %q", raw)
	}
	return resp.StatusCode, body
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, testConfig())

	status, body := do(t, srv, httptest.NewRequest(http.MethodGet, "/health", nil))
	if status != http.StatusOK || body["status"] != "ok" {
		t.Errorf("got %d %v", status, body)
	}
}

func TestProcessImageJSON(t *testing.T) {
	srv := newTestServer(t, testConfig())

	status, body := do(t, srv, jsonRequest(t, map[string]any{
		"image": base64.StdEncoding.EncodeToString(scenePNG(t)),
	}))
	if status != http.StatusOK {
		t.Fatalf("status %d, body %v", status, body)
	}

	want := map[string]any{"length": 10.0, "width": 10.0, "height": 5.0}
	if len(body) != len(want) {
		t.Errorf("body has extra fields: %v", body)
	}
	for k, v := range want {
		if body[k] != v {
			t.Errorf("%s = %v, want %v", k, body[k], v)
		}
	}
}

func TestProcessImageJSONMarkerWidth(t *testing.T) {
	srv := newTestServer(t, testConfig())

	status, body := do(t, srv, jsonRequest(t, map[string]any{
		"image":           base64.StdEncoding.EncodeToString(scenePNG(t)),
		"marker_width_cm": 10,
	}))
	if status != http.StatusOK {
		t.Fatalf("status %d, body %v", status, body)
	}
	if body["length"] != 20.0 || body["height"] != 10.0 {
		t.Errorf("got %v", body)
	}
}

func TestProcessImageMultipart(t *testing.T) {
	srv := newTestServer(t, testConfig())

	status, body := do(t, srv, multipartRequest(t, scenePNG(t), nil))
	if status != http.StatusOK {
		t.Fatalf("status %d, body %v", status, body)
	}
	if body["length"] != 10.0 || body["width"] != 10.0 || body["height"] != 5.0 {
		t.Errorf("got %v", body)
	}

	status, body = do(t, srv, multipartRequest(t, scenePNG(t), map[string]string{"marker_width_cm": "abc"}))
	if status != http.StatusBadRequest {
		t.Errorf("invalid marker width: status %d, body %v", status, body)
	}
}

func TestProcessImageClientErrors(t *testing.T) {
	srv := newTestServer(t, testConfig())

	tests := []struct {
		name string
		req  *http.Request
		want string
	}{
		{"missing image", jsonRequest(t, map[string]any{}), "Imagem não recebida"},
		{"not json", httptest.NewRequest(http.MethodPost, "/processar-imagem", bytes.NewBufferString("image=abc")), "Imagem não recebida"},
		{"bad base64", jsonRequest(t, map[string]any{"image": "%%%"}), "Falha ao decodificar imagem"},
		{"not an image", jsonRequest(t, map[string]any{"image": base64.StdEncoding.EncodeToString([]byte("hello"))}), "Falha ao decodificar imagem"},
		{"blank image", jsonRequest(t, map[string]any{"image": base64.StdEncoding.EncodeToString(blankPNG(t))}), "Nenhum contorno encontrado"},
		{"negative marker width", jsonRequest(t, map[string]any{"image": "AAAA", "marker_width_cm": -2}), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, srv, tt.req)
			if status != http.StatusBadRequest {
				t.Errorf("status %d, want 400 (body %v)", status, body)
			}
			msg, ok := body["erro"].(string)
			if !ok || msg == "" {
				t.Fatalf("missing erro field: %v", body)
			}
			if tt.want != "" && msg != tt.want {
				t.Errorf("erro = %q, want %q", msg, tt.want)
			}
		})
	}
}

type panicExtractor struct{}

func (panicExtractor) Contours(image.Image) ([]detection.Contour, error) {
	panic("extractor bug")
}

type failingExtractor struct{}

func (failingExtractor) Contours(image.Image) ([]detection.Contour, error) {
	return nil, errors.New("opencv segfaulted politely")
}

func TestProcessImageInternalErrors(t *testing.T) {
	tests := []struct {
		name      string
		extractor detection.Extractor
	}{
		{"panic", panicExtractor{}},
		{"unknown error", failingExtractor{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := measure.New(measure.WithExtractor(tt.extractor))
			srv := newTestServer(t, testConfig(), WithMeasurer(m))

			req := jsonRequest(t, map[string]any{"image": base64.StdEncoding.EncodeToString(scenePNG(t))})
			status, body := do(t, srv, req)
			if status != http.StatusInternalServerError {
				t.Errorf("status %d, want 500", status)
			}
			if body["erro"] != "Erro interno do servidor" {
				t.Errorf("erro = %v", body["erro"])
			}

			// The service keeps answering after a failure.
			status, _ = do(t, srv, httptest.NewRequest(http.MethodGet, "/health", nil))
			if status != http.StatusOK {
				t.Errorf("health after failure: %d", status)
			}
		})
	}
}

func TestNotFoundUsesErrorShape(t *testing.T) {
	srv := newTestServer(t, testConfig())

	status, body := do(t, srv, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if status != http.StatusNotFound {
		t.Errorf("status %d, want 404", status)
	}
	if _, ok := body["erro"]; !ok {
		t.Errorf("expected an erro field, got %v", body)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 1
	srv := newTestServer(t, cfg)

	first, _ := do(t, srv, jsonRequest(t, map[string]any{}))
	second, body := do(t, srv, jsonRequest(t, map[string]any{}))
	if first != http.StatusBadRequest {
		t.Errorf("first request: %d, want 400", first)
	}
	if second != http.StatusTooManyRequests {
		t.Errorf("second request: %d, want 429 (body %v)", second, body)
	}
}

func TestNewServerRequiresFiber(t *testing.T) {
	if _, err := NewServer(WithLogger(log.Discard())); err == nil {
		t.Error("expected an error without a fiber app")
	}
}
