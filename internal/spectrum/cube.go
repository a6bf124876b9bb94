package spectrum

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Cube is a dense row-major array as recorded by the camera. Axis 0 is the
// channel axis; the remaining axes are frequency first, then acquisition
// repeats and pixel coordinates.
type Cube struct {
	Shape []int
	Data  []float64
}

// Field is a normalized cube with frequency on axis 0.
type Field struct {
	Shape []int
	Data  []float64
}

// Plane is one 2-D camera image.
type Plane struct {
	Rows, Cols int
	Data       []float64
}

func (p Plane) At(r, c int) float64 {
	return p.Data[r*p.Cols+c]
}

// Stats summarizes one channel of a cube.
type Stats struct {
	Channel int
	Mean    float64
	StdDev  float64
}

func size(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

func (c Cube) check() error {
	if len(c.Shape) == 0 || len(c.Data) == 0 {
		return fmt.Errorf("%w: empty cube", ErrInvalidShape)
	}
	if size(c.Shape) != len(c.Data) {
		return fmt.Errorf(
			"%w: shape %v holds %d values, have %d", ErrInvalidShape, c.Shape, size(c.Shape), len(c.Data),
		)
	}
	return nil
}

// Normalize divides channel 0 by channel 1 element-wise and sums the ratio
// over axis of the per-channel array. A zero in channel 1 is not guarded and
// shows up as Inf or NaN in the result.
func Normalize(
	cube Cube,
	axis int,
) (
	Field, error,
) {

	if err := cube.check(); err != nil {
		return Field{}, err
	}

	if cube.Shape[0] < 2 {
		return Field{}, fmt.Errorf("%w: need 2 channels, have %d", ErrInvalidShape, cube.Shape[0])
	}

	channel := cube.Shape[1:]
	if len(channel) < 2 {
		return Field{}, fmt.Errorf("%w: channel array %v has no axis to reduce", ErrInvalidShape, channel)
	}

	if axis < 0 || axis >= len(channel) {
		return Field{}, fmt.Errorf("%w: axis %d out of range for %v", ErrInvalidShape, axis, channel)
	}

	outer := size(channel[:axis])
	n := channel[axis]
	inner := size(channel[axis+1:])

	stride := size(channel)
	ch0 := cube.Data[:stride]
	ch1 := cube.Data[stride : 2*stride]

	out := make([]float64, outer*inner)
	for o := 0; o < outer; o++ {
		for j := 0; j < n; j++ {
			base := (o*n + j) * inner
			for k := 0; k < inner; k++ {
				out[o*inner+k] += ch0[base+k] / ch1[base+k]
			}
		}
	}

	shape := append(append([]int(nil), channel[:axis]...), channel[axis+1:]...)

	return Field{Shape: shape, Data: out}, nil
}

// Trace returns the values along axis 0 of f at the given pixel address.
func (f Field) Trace(
	pixel ...int,
) (
	[]float64, error,
) {

	if len(f.Shape) == 0 {
		return nil, fmt.Errorf("%w: empty field", ErrInvalidShape)
	}

	if len(pixel) != len(f.Shape)-1 {
		return nil, fmt.Errorf(
			"%w: pixel %v does not address field %v", ErrInvalidShape, pixel, f.Shape,
		)
	}

	offset := 0
	for i, p := range pixel {
		d := f.Shape[i+1]
		if p < 0 || p >= d {
			return nil, fmt.Errorf("%w: pixel %v outside field %v", ErrInvalidShape, pixel, f.Shape)
		}
		offset = offset*d + p
	}

	stride := size(f.Shape[1:])
	trace := make([]float64, f.Shape[0])
	for i := range trace {
		trace[i] = f.Data[i*stride+offset]
	}

	return trace, nil
}

// Image returns the trailing 2-D plane of channel, with every axis between
// the channel and the plane fixed by lead.
func (c Cube) Image(
	channel int,
	lead ...int,
) (
	Plane, error,
) {

	if err := c.check(); err != nil {
		return Plane{}, err
	}

	if len(c.Shape) < 3 || len(lead) != len(c.Shape)-3 {
		return Plane{}, fmt.Errorf("%w: cannot take plane %v of %v", ErrInvalidShape, lead, c.Shape)
	}

	index := append([]int{channel}, lead...)
	offset := 0
	for i, v := range index {
		if v < 0 || v >= c.Shape[i] {
			return Plane{}, fmt.Errorf("%w: plane %v outside %v", ErrInvalidShape, index, c.Shape)
		}
		offset = offset*c.Shape[i] + v
	}

	rows, cols := c.Shape[len(c.Shape)-2], c.Shape[len(c.Shape)-1]
	offset *= rows * cols

	data := make([]float64, rows*cols)
	copy(data, c.Data[offset:offset+rows*cols])

	return Plane{Rows: rows, Cols: cols, Data: data}, nil
}

// ChannelStats reports the mean and population standard deviation of every
// channel.
func ChannelStats(
	cube Cube,
) (
	[]Stats, error,
) {

	if err := cube.check(); err != nil {
		return nil, err
	}

	stride := size(cube.Shape[1:])
	stats := make([]Stats, cube.Shape[0])
	for ch := range stats {
		mean, variance := stat.PopMeanVariance(cube.Data[ch*stride:(ch+1)*stride], nil)
		stats[ch] = Stats{Channel: ch, Mean: mean, StdDev: math.Sqrt(variance)}
	}

	return stats, nil
}
