package seeder

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Lumos-Labs-HQ/provision/internal/types"
)

const (
	maxInt         = 10000
	maxNumeric     = 10
	varcharLength  = 10
	maxVarcharSize = 255
	varcharChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Sampler hands out existing values of a referenced column.
type Sampler interface {
	Sample(ctx context.Context, table, column string) (interface{}, error)
}

type DataGenerator struct {
	mu   sync.Mutex
	rand *rand.Rand
}

func NewDataGenerator(seed int64) *DataGenerator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &DataGenerator{
		rand: rand.New(rand.NewSource(seed)),
	}
}

// Generate builds count rows for table. Foreign key fields are filled from sampler;
// a nullable self-reference is left NULL since the table has no rows of its own yet.
func (g *DataGenerator) Generate(ctx context.Context, table *types.Table, count int, sampler Sampler) ([]Row, error) {
	fields := table.Fields()
	rows := make([]Row, 0, max(count, 0))

	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row := make(Row, len(fields))
		for j, field := range fields {
			value, err := g.valueFor(ctx, table.Name, field, sampler)
			if err != nil {
				return nil, err
			}
			row[j] = value
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func (g *DataGenerator) valueFor(ctx context.Context, tableName string, field *types.Field, sampler Sampler) (interface{}, error) {
	if !field.IsForeign() {
		return g.Value(field)
	}

	ref := field.Reference
	if ref.Table == tableName && field.Nullable {
		return nil, nil
	}
	if sampler == nil {
		return nil, &ReferenceError{Table: ref.Table, Column: ref.Column, Err: ErrUndefinedReference}
	}
	return sampler.Sample(ctx, ref.Table, ref.Column)
}

// Value returns a random value of the field's scalar type.
func (g *DataGenerator) Value(field *types.Field) (interface{}, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch field.Type {
	case types.Int, types.Serial:
		return g.rand.Int63n(maxInt + 1), nil
	case types.UUID:
		return uuid.New(), nil
	case types.Numeric:
		return g.rand.Float64() * maxNumeric, nil
	case types.Varchar:
		return g.text(field.Length), nil
	case types.Timestamp:
		return time.Now(), nil
	default:
		return nil, fmt.Errorf("no generator for type %s of field %s", field.Type, field.Name)
	}
}

func (g *DataGenerator) text(length int) string {
	if length <= 0 {
		length = varcharLength
	}
	length = min(length, maxVarcharSize)

	b := make([]byte, length)
	for i := range b {
		b[i] = varcharChars[g.rand.Intn(len(varcharChars))]
	}
	return string(b)
}
