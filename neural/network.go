// Package neural provides the fixed-topology feedforward networks that drive bees.
package neural

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
)

// Errors reported by network construction, mutation and persistence.
var (
	ErrInvalidTopology  = errors.New("neural: invalid topology")
	ErrTopologyMismatch = errors.New("neural: topology mismatch")
	ErrInvalidArgument  = errors.New("neural: invalid argument")
	ErrMutationStalled  = errors.New("neural: mutation changed nothing")
)

// MaxMutationPasses bounds the retry loop in Mutate.
const MaxMutationPasses = 1000

// InitRange is the half-width of the uniform initialization interval.
const InitRange = 0.5

// Network is a feedforward network with tanh activations on every layer
// after the input layer.
//
// Layer 0 carries a bias vector for a uniform parameter layout, but it is
// never used during inference.
type Network struct {
	layers  []int
	biases  []*mat.VecDense // biases[l] has length layers[l]
	weights []*mat.Dense    // weights[l] is layers[l] x layers[l-1]; weights[0] is nil
	neurons []*mat.VecDense // transient activations

	Fitness     float64
	LastFitness float64
	ID          string
}

// New builds a network with the given layer sizes. Biases and weights are
// drawn uniformly from [-InitRange, InitRange].
func New(layers []int, rng *rand.Rand) (*Network, error) {
	n, err := newZeroed(layers)
	if err != nil {
		return nil, err
	}
	n.Randomize(rng)
	return n, nil
}

// NewZeroed builds a network whose biases and weights are all zero.
func NewZeroed(layers []int) (*Network, error) {
	return newZeroed(layers)
}

func newZeroed(layers []int) (*Network, error) {
	if len(layers) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 layers, got %d", ErrInvalidTopology, len(layers))
	}
	for i, size := range layers {
		if size < 1 {
			return nil, fmt.Errorf("%w: layer %d has size %d", ErrInvalidTopology, i, size)
		}
	}

	n := &Network{
		layers:  append([]int(nil), layers...),
		biases:  make([]*mat.VecDense, len(layers)),
		weights: make([]*mat.Dense, len(layers)),
		neurons: make([]*mat.VecDense, len(layers)),
		ID:      uuid.NewString(),
	}
	for l, size := range layers {
		n.biases[l] = mat.NewVecDense(size, nil)
		n.neurons[l] = mat.NewVecDense(size, nil)
		if l > 0 {
			n.weights[l] = mat.NewDense(size, layers[l-1], nil)
		}
	}
	return n, nil
}

// Randomize redraws every parameter uniformly from [-InitRange, InitRange].
func (n *Network) Randomize(rng *rand.Rand) {
	n.eachParam(func(p *float64) {
		*p = rng.Float64()*2*InitRange - InitRange
	})
}

// Layers returns a copy of the layer sizes.
func (n *Network) Layers() []int {
	return append([]int(nil), n.layers...)
}

// Inputs returns the size of the input layer.
func (n *Network) Inputs() int { return n.layers[0] }

// Outputs returns the size of the output layer.
func (n *Network) Outputs() int { return n.layers[len(n.layers)-1] }

// ParameterCount returns the number of biases plus weights.
func (n *Network) ParameterCount() int {
	count := 0
	for l, size := range n.layers {
		count += size
		if l > 0 {
			count += size * n.layers[l-1]
		}
	}
	return count
}

// Bias returns the bias of a neuron.
func (n *Network) Bias(layer, neuron int) float64 {
	return n.biases[layer].AtVec(neuron)
}

// SetBias sets the bias of a neuron.
func (n *Network) SetBias(layer, neuron int, v float64) {
	n.biases[layer].SetVec(neuron, v)
}

// Weight returns the weight from neuron prev in layer-1 to neuron in layer.
func (n *Network) Weight(layer, neuron, prev int) float64 {
	return n.weights[layer].At(neuron, prev)
}

// SetWeight sets the weight from neuron prev in layer-1 to neuron in layer.
func (n *Network) SetWeight(layer, neuron, prev int, v float64) {
	n.weights[layer].Set(neuron, prev, v)
}

// eachParam visits biases layer by layer, then weights layer, neuron, prev.
// This is the persistence order.
func (n *Network) eachParam(fn func(p *float64)) {
	for _, b := range n.biases {
		data := b.RawVector().Data
		for i := range data {
			fn(&data[i])
		}
	}
	for _, w := range n.weights[1:] {
		// Dense storage is row-major with stride == cols for freshly allocated matrices
		data := w.RawMatrix().Data
		for i := range data {
			fn(&data[i])
		}
	}
}

// Parameters returns a flat copy of all biases then all weights.
func (n *Network) Parameters() []float64 {
	out := make([]float64, 0, n.ParameterCount())
	n.eachParam(func(p *float64) { out = append(out, *p) })
	return out
}

// SetParameters overwrites all biases and weights from a flat slice in
// Parameters order.
func (n *Network) SetParameters(params []float64) error {
	if len(params) != n.ParameterCount() {
		return fmt.Errorf("%w: got %d parameters, want %d", ErrTopologyMismatch, len(params), n.ParameterCount())
	}
	i := 0
	n.eachParam(func(p *float64) {
		*p = params[i]
		i++
	})
	return nil
}

// Forward runs inference. The returned slice is freshly allocated.
// Panics if len(inputs) differs from the input layer size.
func (n *Network) Forward(inputs []float64) []float64 {
	if len(inputs) != n.layers[0] {
		panic(fmt.Sprintf("neural: Forward got %d inputs, want %d", len(inputs), n.layers[0]))
	}
	copy(n.neurons[0].RawVector().Data, inputs)

	for l := 1; l < len(n.layers); l++ {
		cur := n.neurons[l]
		cur.MulVec(n.weights[l], n.neurons[l-1])
		cur.AddVec(cur, n.biases[l])
		data := cur.RawVector().Data
		for i, v := range data {
			data[i] = math.Tanh(v)
		}
	}

	out := n.neurons[len(n.layers)-1].RawVector().Data
	return append([]float64(nil), out...)
}

// Mutate adds a uniform delta in [-magnitude, magnitude] to each parameter
// with probability percent/100. Passes are repeated until at least one
// parameter changed, up to MaxMutationPasses. The identity is regenerated
// on success.
func (n *Network) Mutate(rng *rand.Rand, percent, magnitude float64) error {
	if !(percent > 0 && percent <= 100) {
		return fmt.Errorf("%w: percent %v outside (0, 100]", ErrInvalidArgument, percent)
	}
	if !(magnitude > 0) {
		return fmt.Errorf("%w: magnitude %v must be positive", ErrInvalidArgument, magnitude)
	}

	chance := percent / 100
	for pass := 0; pass < MaxMutationPasses; pass++ {
		changed := 0
		n.eachParam(func(p *float64) {
			if rng.Float64() >= chance {
				return
			}
			delta := (rng.Float64()*2 - 1) * magnitude
			if delta == 0 {
				return
			}
			*p += delta
			changed++
		})
		if changed > 0 {
			n.ID = uuid.NewString()
			return nil
		}
	}
	return fmt.Errorf("%w after %d passes", ErrMutationStalled, MaxMutationPasses)
}

// SameTopology reports whether two networks have identical layer sizes.
func (n *Network) SameTopology(other *Network) bool {
	if len(n.layers) != len(other.layers) {
		return false
	}
	for i := range n.layers {
		if n.layers[i] != other.layers[i] {
			return false
		}
	}
	return true
}

// CopyParameters deep-copies biases and weights from src into dst. Fitness
// and identity are left alone.
func CopyParameters(src, dst *Network) error {
	if !src.SameTopology(dst) {
		return fmt.Errorf("%w: copy %v into %v", ErrTopologyMismatch, src.layers, dst.layers)
	}
	for l := range src.layers {
		dst.biases[l].CopyVec(src.biases[l])
		if l > 0 {
			dst.weights[l].Copy(src.weights[l])
		}
	}
	return nil
}

// Clone returns a deep copy, including fitness and identity.
func (n *Network) Clone() *Network {
	c, _ := newZeroed(n.layers)
	_ = CopyParameters(n, c)
	c.Fitness = n.Fitness
	c.LastFitness = n.LastFitness
	c.ID = n.ID
	return c
}
