package workload

import (
	"bytes"
	"testing"
)

func TestFillPattern(t *testing.T) {
	gen := NewGenerator(Config{Fill: DefaultFill})

	buf, err := gen.Buffer(128)
	if err != nil {
		t.Fatalf("Buffer failed: %v", err)
	}

	if !bytes.Equal(buf, bytes.Repeat([]byte{0xAB}, 128)) {
		t.Error("buffer is not filled with 0xAB")
	}
}

func TestCounterPattern(t *testing.T) {
	gen := NewGenerator(Config{Pattern: PatternCounter})

	buf, err := gen.Buffer(300)
	if err != nil {
		t.Fatalf("Buffer failed: %v", err)
	}

	if buf[0] != 0 || buf[255] != 255 || buf[256] != 0 || buf[299] != 43 {
		t.Errorf("unexpected counter bytes: %d %d %d %d",
			buf[0], buf[255], buf[256], buf[299])
	}
}

func TestRandomDeterministic(t *testing.T) {
	cfg := Config{Pattern: PatternRandom, Seed: 42}

	buf1, err := NewGenerator(cfg).Buffer(1024)
	if err != nil {
		t.Fatalf("first generation failed: %v", err)
	}

	buf2, err := NewGenerator(cfg).Buffer(1024)
	if err != nil {
		t.Fatalf("second generation failed: %v", err)
	}

	if !bytes.Equal(buf1, buf2) {
		t.Error("buffers are not deterministic for same seed")
	}

	other, _ := NewGenerator(Config{Pattern: PatternRandom, Seed: 43}).Buffer(1024)
	if bytes.Equal(buf1, other) {
		t.Error("different seeds produced identical buffers")
	}
}

func TestUnknownPattern(t *testing.T) {
	_, err := NewGenerator(Config{Pattern: "zebra"}).Buffer(8)
	if err == nil {
		t.Error("expected error for unknown pattern")
	}
}

func TestSweep(t *testing.T) {
	tests := []struct {
		name    string
		lo, hi  int
		want    []int
		wantErr bool
	}{
		{name: "default", lo: 64, hi: 32768,
			want: []int{64, 128, 256, 512, 1024, 2048, 4096, 8192, 16384, 32768}},
		{name: "round up", lo: 100, hi: 512, want: []int{128, 256, 512}},
		{name: "single", lo: 16, hi: 16, want: []int{16}},
		{name: "inverted", lo: 64, hi: 32, wantErr: true},
		{name: "zero", lo: 0, hi: 32, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sweep(tt.lo, tt.hi)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}

				return
			}

			if err != nil {
				t.Fatalf("Sweep failed: %v", err)
			}

			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}

			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)

					break
				}
			}
		})
	}
}

func TestDefaultSizes(t *testing.T) {
	sizes := DefaultSizes()
	if len(sizes) != 10 || sizes[0] != 64 || sizes[9] != 32*1024 {
		t.Errorf("DefaultSizes = %v", sizes)
	}
}
