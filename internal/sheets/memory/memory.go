// Package memory is a Mirror kept in process, for development and tests.
package memory

import (
	"context"
	"slices"
	"sync"

	"cafeledger/internal/core"
	"cafeledger/internal/sheets"
)

type Mirror struct {
	mu   sync.Mutex
	rows [][]string
}

var _ sheets.Mirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{}
}

func (m *Mirror) Append(_ context.Context, tx core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, sheets.Row(tx))
	return nil
}

// Delete drops the rows whose id column is id.
func (m *Mirror) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = slices.DeleteFunc(m.rows, func(r []string) bool { return r[0] == id })
	return nil
}

func (m *Mirror) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = nil
	return nil
}

// Rows returns a copy of the mirrored rows, oldest first.
func (m *Mirror) Rows() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.rows))
	for i, r := range m.rows {
		out[i] = slices.Clone(r)
	}
	return out
}
