// Package memory is an in-process ledger mirror for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"finpulse/internal/sheets"
)

type Mirror struct {
	mu      sync.Mutex
	rows    []sheets.MirrorRow
	failing error
}

var _ sheets.LedgerMirror = (*Mirror)(nil)

func New() *Mirror { return &Mirror{} }

// AppendRow stores the row and returns a synthetic row reference.
func (m *Mirror) AppendRow(_ context.Context, row sheets.MirrorRow) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing != nil {
		return "", m.failing
	}
	m.rows = append(m.rows, row)
	return fmt.Sprintf("mem:%d", len(m.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (m *Mirror) Rows() []sheets.MirrorRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sheets.MirrorRow(nil), m.rows...)
}

// FailWith makes every append fail with err until called again with nil.
func (m *Mirror) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing = err
}
