package store

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"strings"
	"testing"
)

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: 10, G: 120, B: uint8(x), A: 255})
		}
	}
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func TestQueryMatches(t *testing.T) {
	fields := map[string]any{
		"status":        "active",
		"featuredImage": nil,
		"views":         float64(3),
	}

	tests := []struct {
		name  string
		query Query
		want  bool
	}{
		{"equal string", Equal("status", "active"), true},
		{"different string", Equal("status", "inactive"), false},
		{"any of values", Equal("status", "inactive", "active"), true},
		{"missing attribute", Equal("userId", "alice"), false},
		{"null attribute", Equal("featuredImage", ""), false},
		{"number compared by value", Equal("views", 3), true},
		{"no values", Equal("status"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.query.Matches(fields); got != tt.want {
				t.Errorf("%v.Matches() = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestMatchAll(t *testing.T) {
	fields := map[string]any{"status": "active", "userId": "alice"}

	if !MatchAll(fields, nil) {
		t.Error("MatchAll() with no queries should match")
	}
	if !MatchAll(fields, []Query{Equal("status", "active"), Equal("userId", "alice")}) {
		t.Error("MatchAll() should match when every query matches")
	}
	if MatchAll(fields, []Query{Equal("status", "active"), Equal("userId", "bob")}) {
		t.Error("MatchAll() should fail when one query fails")
	}
}

func TestReadBlob(t *testing.T) {
	pic := pngImage(t, 2, 2)
	limits := Limits{MaxSize: 1024, AllowedMimeTypes: DefaultImageLimits.AllowedMimeTypes}

	tests := []struct {
		name     string
		blob     Blob
		wantType string
		wantErr  bool
	}{
		{name: "png accepted", blob: Blob{Body: bytes.NewReader(pic)}, wantType: "image/png"},
		{name: "client type ignored", blob: Blob{ContentType: "text/plain", Body: bytes.NewReader(pic)}, wantType: "image/png"},
		{name: "nil body", blob: Blob{}, wantErr: true},
		{name: "empty body", blob: Blob{Body: strings.NewReader("")}, wantErr: true},
		{name: "text rejected", blob: Blob{Body: strings.NewReader("hello")}, wantErr: true},
		{name: "declared size too large", blob: Blob{Size: 4096, Body: bytes.NewReader(pic)}, wantErr: true},
		{name: "actual size too large", blob: Blob{Body: bytes.NewReader(append(pic, make([]byte, 2048)...))}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, contentType, err := ReadBlob(tt.blob, limits)
			if tt.wantErr {
				if !errors.Is(err, ErrFileRejected) {
					t.Fatalf("ReadBlob() error = %v, want %v", err, ErrFileRejected)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadBlob() error = %v", err)
			}
			if contentType != tt.wantType {
				t.Errorf("content type = %v, want %v", contentType, tt.wantType)
			}
			if len(data) != len(pic) {
				t.Errorf("len(data) = %d, want %d", len(data), len(pic))
			}
		})
	}
}

func TestCleanName(t *testing.T) {
	tests := map[string]string{
		"cover.png":            "cover.png",
		"../../etc/passwd":     "passwd",
		`C:\Users\me\shot.jpg`: "shot.jpg",
		"":                     "",
		"/":                    "",
	}
	for in, want := range tests {
		if got := CleanName(in); got != want {
			t.Errorf("CleanName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestURLBuilder(t *testing.T) {
	b := URLBuilder{BaseURL: "https://blog.example.com/"}

	if got, want := b.View("images", "abc"), "https://blog.example.com/storage/buckets/images/files/abc/view"; got != want {
		t.Errorf("View() = %v, want %v", got, want)
	}

	tests := []struct {
		name string
		opts PreviewOptions
		want string
	}{
		{"no options", PreviewOptions{}, "https://blog.example.com/storage/buckets/images/files/abc/preview"},
		{"width only", PreviewOptions{Width: 400}, "https://blog.example.com/storage/buckets/images/files/abc/preview?width=400"},
		{
			"all options",
			PreviewOptions{Width: 800, Height: 300, Gravity: "center", Quality: 100},
			"https://blog.example.com/storage/buckets/images/files/abc/preview?gravity=center&height=300&quality=100&width=800",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.Preview("images", "abc", tt.opts); got != tt.want {
				t.Errorf("Preview() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidatePreviewOptions(t *testing.T) {
	tests := []struct {
		name    string
		opts    PreviewOptions
		wantErr bool
	}{
		{"zero value", PreviewOptions{}, false},
		{"card preset", PreviewOptions{Width: 400, Height: 250}, false},
		{"negative width", PreviewOptions{Width: -1}, true},
		{"too tall", PreviewOptions{Height: 4001}, true},
		{"quality over 100", PreviewOptions{Quality: 101}, true},
		{"unknown gravity", PreviewOptions{Gravity: "middle"}, true},
		{"corner gravity", PreviewOptions{Gravity: "bottom-right"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePreviewOptions(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePreviewOptions() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransform(t *testing.T) {
	src := pngImage(t, 80, 40)

	tests := []struct {
		name  string
		opts  PreviewOptions
		wantW int
		wantH int
	}{
		{"fill both dimensions", PreviewOptions{Width: 20, Height: 20, Gravity: "center"}, 20, 20},
		{"width keeps aspect", PreviewOptions{Width: 40}, 40, 20},
		{"height keeps aspect", PreviewOptions{Height: 10}, 20, 10},
		{"no dimensions re-encodes", PreviewOptions{Quality: 50}, 80, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Transform(bytes.NewReader(src), tt.opts)
			if err != nil {
				t.Fatalf("Transform() error = %v", err)
			}
			img, format, err := image.Decode(bytes.NewReader(out))
			if err != nil {
				t.Fatalf("output not decodable: %v", err)
			}
			if format != "jpeg" {
				t.Errorf("format = %v, want jpeg", format)
			}
			if b := img.Bounds(); b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("size = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestTransformRejectsGarbage(t *testing.T) {
	if _, err := Transform(strings.NewReader("not an image"), PreviewOptions{Width: 10}); err == nil {
		t.Error("Transform() should fail on undecodable input")
	}
	if _, err := Transform(bytes.NewReader(pngImage(t, 4, 4)), PreviewOptions{Gravity: "nowhere"}); err == nil {
		t.Error("Transform() should reject unknown gravity")
	}
}
