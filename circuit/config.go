package circuit

import (
	"fmt"
	"runtime"

	"github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"

	"github.com/PolyhedraZK/rwasm-zkcircuit/field"
)

// Config is the circuit shape and the knobs of witness generation.
type Config struct {
	// Degree k gives a grid of 2^k rows.
	Degree int
	// StackWindow is the number of stack slots visible to a row.
	StackWindow int
	// Parallelism bounds the goroutines assigning rows.
	Parallelism int
	Field       field.Field
	Packing     field.WordPacking
	Logger      zerolog.Logger
}

// Option configures a circuit, in the manner of frontend.CompileOption.
type Option func(*Config) error

const (
	DefaultDegree      = 10
	DefaultStackWindow = 6

	minDegree = 3
	maxDegree = 26
	// 64-bit products with their high word must not wrap.
	minFieldBits = 130
)

func WithDegree(k int) Option {
	return func(c *Config) error {
		if k < minDegree || k > maxDegree {
			return fmt.Errorf("degree %d outside [%d, %d]", k, minDegree, maxDegree)
		}
		c.Degree = k
		return nil
	}
}

// WithStackWindow sets how many stack slots each row sees; locals deeper
// than the window cannot be accessed.
func WithStackWindow(w int) Option {
	return func(c *Config) error {
		if w < 3 {
			return fmt.Errorf("stack window %d is smaller than 3", w)
		}
		c.StackWindow = w
		return nil
	}
}

func WithParallelism(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return fmt.Errorf("parallelism %d is not positive", n)
		}
		c.Parallelism = n
		return nil
	}
}

func WithField(f field.Field) Option {
	return func(c *Config) error {
		if f.FieldBitLen() < minFieldBits {
			return fmt.Errorf("a %d-bit field cannot hold 64-bit products", f.FieldBitLen())
		}
		c.Field = f
		return nil
	}
}

func WithWordPacking(p field.WordPacking) Option {
	return func(c *Config) error {
		c.Packing = p
		return nil
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Config) error {
		c.Logger = l
		return nil
	}
}

// NewConfig applies opts over the defaults.
func NewConfig(opts ...Option) (Config, error) {
	c := Config{
		Degree:      DefaultDegree,
		StackWindow: DefaultStackWindow,
		Parallelism: runtime.GOMAXPROCS(0),
		Field:       field.Default(),
		Logger:      logger.Logger(),
	}
	for _, opt := range opts {
		if err := opt(&c); err != nil {
			return Config{}, err
		}
	}
	if c.Packing.Version == 0 {
		c.Packing = field.NewWordPacking(c.Field)
	}
	if int(c.Packing.LimbBits) >= c.Field.FieldBitLen() || c.Packing.LimbBits == 0 {
		return Config{}, fmt.Errorf("word packing with %d-bit limbs does not fit the field", c.Packing.LimbBits)
	}
	if 2*c.Packing.Limbs() > c.Rows() {
		return Config{}, fmt.Errorf("%d rows cannot hold the state roots", c.Rows())
	}
	return c, nil
}

func (c Config) Rows() int {
	return 1 << c.Degree
}
