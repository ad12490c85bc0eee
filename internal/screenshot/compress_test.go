package screenshot

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"reflect"
	"testing"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestQuantizeCompressor(t *testing.T) {
	input := encodePNG(t, gradient(64, 48))

	out, err := QuantizeCompressor{Colors: 32}.Compress(context.Background(), input)
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	if len(out) > len(input) {
		t.Errorf("output %d bytes, larger than input %d", len(out), len(input))
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("output size = %dx%d, want 64x48", b.Dx(), b.Dy())
	}
}

func TestQuantizeCompressorRejectsGarbage(t *testing.T) {
	if _, err := (QuantizeCompressor{}).Compress(context.Background(), []byte("not a png")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestQuantizeCompressorHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (QuantizeCompressor{}).Compress(ctx, encodePNG(t, gradient(4, 4))); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

type fakeRunner struct {
	out   []byte
	err   error
	name  string
	args  []string
	stdin []byte
}

func (f *fakeRunner) RunWithInput(_ context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	f.stdin, f.name, f.args = stdin, name, args
	return f.out, f.err
}

func TestPngquantCompressor(t *testing.T) {
	input := bytes.Repeat([]byte{1}, 100)

	t.Run("passes image on stdin", func(t *testing.T) {
		runner := &fakeRunner{out: []byte{2, 2, 2}}
		out, err := PngquantCompressor{Runner: runner, Colors: 64, Quality: "65-80"}.Compress(context.Background(), input)
		if err != nil {
			t.Fatalf("Compress() error = %v", err)
		}
		if !bytes.Equal(out, []byte{2, 2, 2}) {
			t.Errorf("out = %v", out)
		}
		wantArgs := []string{"--speed", "3", "--quality", "65-80", "64", "-"}
		if runner.name != "pngquant" || !reflect.DeepEqual(runner.args, wantArgs) {
			t.Errorf("ran %s %v, want pngquant %v", runner.name, runner.args, wantArgs)
		}
		if !bytes.Equal(runner.stdin, input) {
			t.Error("stdin did not carry the input image")
		}
	})

	t.Run("keeps input when output is larger", func(t *testing.T) {
		runner := &fakeRunner{out: bytes.Repeat([]byte{2}, 200)}
		out, err := PngquantCompressor{Runner: runner}.Compress(context.Background(), input)
		if err != nil {
			t.Fatalf("Compress() error = %v", err)
		}
		if !bytes.Equal(out, input) {
			t.Error("expected input bytes back")
		}
	})

	t.Run("runner failure", func(t *testing.T) {
		runner := &fakeRunner{err: errors.New("exit status 99")}
		if _, err := (PngquantCompressor{Runner: runner}).Compress(context.Background(), input); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("empty output", func(t *testing.T) {
		if _, err := (PngquantCompressor{Runner: &fakeRunner{}}).Compress(context.Background(), input); err == nil {
			t.Fatal("expected error")
		}
	})
}
