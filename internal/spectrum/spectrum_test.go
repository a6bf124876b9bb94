package spectrum_test

import (
	"errors"
	"math"
	"testing"

	"github.com/HamletTheHamster/esr-splitting/internal/spectrum"
)

func TestChunk_SplitsBySizes(t *testing.T) {
	data := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}

	chunks, err := spectrum.Chunk(data, []int{3, 3, 4})
	if err != nil {
		t.Fatalf("Chunk error: %v", err)
	}

	want := [][]float64{{0, 1, 2}, {3, 4, 5}, {6, 7, 8, 9}}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(chunks))
	}
	for i := range want {
		if !equal(chunks[i], want[i]) {
			t.Fatalf("chunk %d: expected %v, got %v", i, want[i], chunks[i])
		}
	}
}

func TestChunk_Overflow(t *testing.T) {
	data := make([]float64, 10)

	if _, err := spectrum.Chunk(data, []int{3, 3, 5}); !errors.Is(err, spectrum.ErrSizeOverflow) {
		t.Fatalf("expected ErrSizeOverflow, got %v", err)
	}
	if _, err := spectrum.Chunk(data, []int{3, -1}); !errors.Is(err, spectrum.ErrSizeOverflow) {
		t.Fatalf("expected ErrSizeOverflow for negative size, got %v", err)
	}
}

func TestChunk_Reconstructs(t *testing.T) {
	data := make([]float64, 57)
	for i := range data {
		data[i] = float64(i * i)
	}

	for _, sizes := range [][]int{
		{57},
		{10, 20, 27},
		{1, 1, 1, 54},
		{9, 9, 9, 10, 10, 10},
		{0, 57},
	} {
		chunks, err := spectrum.Chunk(data, sizes)
		if err != nil {
			t.Fatalf("sizes %v: %v", sizes, err)
		}
		if len(chunks) != len(sizes) {
			t.Fatalf("sizes %v: expected %d chunks, got %d", sizes, len(sizes), len(chunks))
		}

		var joined []float64
		total := 0
		for i, c := range chunks {
			if len(c) != sizes[i] {
				t.Fatalf("sizes %v: chunk %d has length %d", sizes, i, len(c))
			}
			total += len(c)
			joined = append(joined, c...)
		}
		if total != len(data) || !equal(joined, data) {
			t.Fatalf("sizes %v: concatenation does not reconstruct the input", sizes)
		}
	}
}

func TestChunk_AppendDoesNotClobberNeighbour(t *testing.T) {
	data := []float64{0, 1, 2, 3}

	chunks, err := spectrum.Chunk(data, []int{2, 2})
	if err != nil {
		t.Fatalf("Chunk error: %v", err)
	}

	_ = append(chunks[0], 99)
	if chunks[1][0] != 2 {
		t.Fatalf("append to chunk 0 overwrote chunk 1: %v", chunks[1])
	}
}

func TestClipAmount(t *testing.T) {
	got, err := spectrum.ClipAmount(spectrum.Boundaries{50, 40, 50}, spectrum.DefaultClipFraction)
	if err != nil {
		t.Fatalf("ClipAmount error: %v", err)
	}
	if got != 5 {
		t.Fatalf("expected clip of 5, got %d", got)
	}

	got, _ = spectrum.ClipAmount(spectrum.Boundaries{59}, 0.1)
	if got != 5 {
		t.Fatalf("expected floor to 5, got %d", got)
	}

	if _, err := spectrum.ClipAmount(nil, 0.1); !errors.Is(err, spectrum.ErrEmptyBoundaries) {
		t.Fatalf("expected ErrEmptyBoundaries, got %v", err)
	}
}

func TestClip_TrimsBothEnds(t *testing.T) {
	b := spectrum.Boundaries{50, 40, 50}
	n := b.Sum()

	freq := make([]float64, n)
	intensity := make([]float64, n)
	for i := range freq {
		freq[i] = 2.8e9 + float64(i)*1e5
		intensity[i] = float64(i)
	}

	s, err := spectrum.New(freq, intensity)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	amount, _ := spectrum.ClipAmount(b, spectrum.DefaultClipFraction)
	clipped, adjusted, err := spectrum.Clip(s, b, amount)
	if err != nil {
		t.Fatalf("Clip error: %v", err)
	}

	if clipped.Len() != n-10 {
		t.Fatalf("expected %d samples, got %d", n-10, clipped.Len())
	}
	if clipped.Intensity[0] != 5 || clipped.Intensity[clipped.Len()-1] != float64(n-6) {
		t.Fatalf("unexpected clipped range %v..%v", clipped.Intensity[0], clipped.Intensity[clipped.Len()-1])
	}
	if clipped.Freq[0] != freq[5] {
		t.Fatalf("frequency axis not clipped with intensity")
	}

	want := spectrum.Boundaries{45, 40, 45}
	if !equalInts(adjusted, want) {
		t.Fatalf("expected boundaries %v, got %v", want, adjusted)
	}
	if adjusted.Sum() != clipped.Len() {
		t.Fatalf("boundary sum %d does not match clipped length %d", adjusted.Sum(), clipped.Len())
	}
	if !equalInts(b, spectrum.Boundaries{50, 40, 50}) {
		t.Fatalf("caller boundaries mutated: %v", b)
	}
}

func TestClip_Degenerate(t *testing.T) {
	s, _ := spectrum.New([]float64{1, 2, 3, 4}, []float64{1, 1, 1, 1})

	if _, _, err := spectrum.Clip(s, spectrum.Boundaries{4}, 2); !errors.Is(err, spectrum.ErrClipTooLarge) {
		t.Fatalf("expected ErrClipTooLarge, got %v", err)
	}
	long, _ := spectrum.New([]float64{1, 2, 3, 4, 5, 6}, make([]float64, 6))
	if _, _, err := spectrum.Clip(long, spectrum.Boundaries{1, 5}, 2); !errors.Is(err, spectrum.ErrClipTooLarge) {
		t.Fatalf("expected ErrClipTooLarge for short edge band, got %v", err)
	}
	if _, _, err := spectrum.Clip(s, nil, 1); !errors.Is(err, spectrum.ErrEmptyBoundaries) {
		t.Fatalf("expected ErrEmptyBoundaries, got %v", err)
	}
}

func TestNew_Validates(t *testing.T) {
	if _, err := spectrum.New(nil, nil); !errors.Is(err, spectrum.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if _, err := spectrum.New([]float64{1, 2}, []float64{1}); !errors.Is(err, spectrum.ErrInvalidShape) {
		t.Fatalf("expected ErrInvalidShape, got %v", err)
	}
	if _, err := spectrum.New([]float64{1, 1}, []float64{1, 2}); !errors.Is(err, spectrum.ErrNotIncreasing) {
		t.Fatalf("expected ErrNotIncreasing, got %v", err)
	}
}

func TestSmooth_Empty(t *testing.T) {
	if _, err := spectrum.Smooth(nil, 15, 3); !errors.Is(err, spectrum.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestSmooth_InvalidWindow(t *testing.T) {
	trace := make([]float64, 10)

	if _, err := spectrum.Smooth(trace, 3, 3); !errors.Is(err, spectrum.ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow for order >= window, got %v", err)
	}
	if _, err := spectrum.Smooth(trace, 15, 3); !errors.Is(err, spectrum.ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow for window > length, got %v", err)
	}
}

func TestSmooth_PreservesLengthAndCubics(t *testing.T) {
	trace := make([]float64, 40)
	for i := range trace {
		x := float64(i) / 10
		trace[i] = 2 - x + 0.5*x*x - 0.1*x*x*x
	}

	out, err := spectrum.Smooth(trace, 15, 3)
	if err != nil {
		t.Fatalf("Smooth error: %v", err)
	}
	if len(out) != len(trace) {
		t.Fatalf("expected length %d, got %d", len(trace), len(out))
	}
	for i := range out {
		if math.Abs(out[i]-trace[i]) > 1e-9 {
			t.Fatalf("sample %d: cubic not preserved, %v != %v", i, out[i], trace[i])
		}
	}
}

func TestSmooth_MovingAverageAtOrderZero(t *testing.T) {
	trace := []float64{0, 0, 3, 0, 0, 6, 0}

	out, err := spectrum.Smooth(trace, 3, 0)
	if err != nil {
		t.Fatalf("Smooth error: %v", err)
	}

	want := []float64{1, 1, 1, 1, 2, 2, 2}
	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-12 {
			t.Fatalf("expected %v, got %v", want, out)
		}
	}
}

func TestNormalize_SumsRatioOverAxis(t *testing.T) {
	// [channel=2, freq=3, repeat=2, row=1, col=2]
	shape := []int{2, 3, 2, 1, 2}
	n := 3 * 2 * 1 * 2
	data := make([]float64, 2*n)
	for i := 0; i < n; i++ {
		data[i] = float64(i + 1)
		data[n+i] = 2
	}

	field, err := spectrum.Normalize(spectrum.Cube{Shape: shape, Data: data}, 1)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}

	if !equalInts(field.Shape, []int{3, 1, 2}) {
		t.Fatalf("expected shape [3 1 2], got %v", field.Shape)
	}

	trace, err := field.Trace(0, 1)
	if err != nil {
		t.Fatalf("Trace error: %v", err)
	}

	// freq f, col 1: (v(f,0,0,1) + v(f,1,0,1)) / 2 with v = flat index + 1
	want := []float64{(2 + 4) / 2., (6 + 8) / 2., (10 + 12) / 2.}
	if !equal(trace, want) {
		t.Fatalf("expected trace %v, got %v", want, trace)
	}
}

func TestNormalize_InvalidShape(t *testing.T) {
	for name, cube := range map[string]spectrum.Cube{
		"empty":       {},
		"one channel": {Shape: []int{1, 2, 2}, Data: make([]float64, 4)},
		"flat":        {Shape: []int{2, 3}, Data: make([]float64, 6)},
		"mismatch":    {Shape: []int{2, 2, 2}, Data: make([]float64, 7)},
	} {
		if _, err := spectrum.Normalize(cube, 1); !errors.Is(err, spectrum.ErrInvalidShape) {
			t.Fatalf("%s: expected ErrInvalidShape, got %v", name, err)
		}
	}

	cube := spectrum.Cube{Shape: []int{2, 2, 2}, Data: make([]float64, 8)}
	if _, err := spectrum.Normalize(cube, 2); !errors.Is(err, spectrum.ErrInvalidShape) {
		t.Fatalf("expected ErrInvalidShape for axis out of range, got %v", err)
	}
}

func TestNormalize_DivisionByZeroPropagates(t *testing.T) {
	cube := spectrum.Cube{Shape: []int{2, 1, 2}, Data: []float64{1, 1, 0, 1}}

	field, err := spectrum.Normalize(cube, 1)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if !math.IsInf(field.Data[0], 1) {
		t.Fatalf("expected +Inf, got %v", field.Data[0])
	}
}

func TestTrace_BadPixel(t *testing.T) {
	field := spectrum.Field{Shape: []int{2, 2, 2}, Data: make([]float64, 8)}

	if _, err := field.Trace(0); !errors.Is(err, spectrum.ErrInvalidShape) {
		t.Fatalf("expected ErrInvalidShape for short address, got %v", err)
	}
	if _, err := field.Trace(0, 2); !errors.Is(err, spectrum.ErrInvalidShape) {
		t.Fatalf("expected ErrInvalidShape for out of range pixel, got %v", err)
	}
}

func TestCubeImageAndStats(t *testing.T) {
	shape := []int{2, 2, 1, 2, 2}
	data := make([]float64, 16)
	for i := range data {
		data[i] = float64(i)
	}
	cube := spectrum.Cube{Shape: shape, Data: data}

	plane, err := cube.Image(0, 1, 0)
	if err != nil {
		t.Fatalf("Image error: %v", err)
	}
	if plane.Rows != 2 || plane.Cols != 2 || plane.At(1, 0) != 6 {
		t.Fatalf("unexpected plane %+v", plane)
	}

	stats, err := spectrum.ChannelStats(cube)
	if err != nil {
		t.Fatalf("ChannelStats error: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(stats))
	}
	// 0..7: mean 3.5, population variance 5.25
	if stats[0].Mean != 3.5 || math.Abs(stats[0].StdDev-math.Sqrt(5.25)) > 1e-12 {
		t.Fatalf("unexpected channel 0 stats %+v", stats[0])
	}
	if stats[1].Mean != 11.5 {
		t.Fatalf("unexpected channel 1 mean %v", stats[1].Mean)
	}
}

func equal(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
