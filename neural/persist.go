package neural

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// WriteTo writes the flat text form: fitness, then every bias, then every
// weight, one value per line.
func (n *Network) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var written int64

	put := func(v float64) error {
		k, err := bw.WriteString(strconv.FormatFloat(v, 'g', -1, 64) + "\n")
		written += int64(k)
		return err
	}

	if err := put(n.Fitness); err != nil {
		return written, err
	}
	var werr error
	n.eachParam(func(p *float64) {
		if werr == nil {
			werr = put(*p)
		}
	})
	if werr != nil {
		return written, werr
	}
	return written, bw.Flush()
}

// ReadFrom reads the flat text form written by WriteTo. The network is only
// modified when the value count matches its topology exactly; otherwise
// ErrTopologyMismatch is returned and the parameters are untouched.
func (n *Network) ReadFrom(r io.Reader) (int64, error) {
	want := 1 + n.ParameterCount()
	values := make([]float64, 0, want)

	var read int64
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		read += int64(len(line)) + 1
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return read, fmt.Errorf("parsing value %d: %w", len(values)+1, err)
		}
		values = append(values, v)
	}
	if err := sc.Err(); err != nil {
		return read, fmt.Errorf("reading network: %w", err)
	}

	if len(values) != want {
		return read, fmt.Errorf("%w: file has %d values, network needs %d", ErrTopologyMismatch, len(values), want)
	}

	n.Fitness = values[0]
	if err := n.SetParameters(values[1:]); err != nil {
		return read, err
	}
	return read, nil
}

// Save writes the network to path.
func (n *Network) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating network file: %w", err)
	}
	if _, err := n.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("writing network file: %w", err)
	}
	return f.Close()
}

// Load reads the network from path. See ReadFrom.
func (n *Network) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening network file: %w", err)
	}
	defer f.Close()

	if _, err := n.ReadFrom(f); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}
