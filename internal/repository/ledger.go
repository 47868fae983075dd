package repository

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/yaaadiiiiiiii/Campus-Event-Management-System/internal/csvstore"
	"github.com/yaaadiiiiiiii/Campus-Event-Management-System/internal/models"
)

// ledgerHeader is the fixed header of the registration ledger file:
// studentId,eventId,registeredAt.
const ledgerHeader = "學生ID,活動編號,報名時間"

// RegistrationLedger is the CSV-backed RegistrationStore. Creation appends
// a single line; removal reads the whole file and rewrites it through a
// temp-and-rename replace. A missing backing file is an empty ledger, not
// an error.
type RegistrationLedger struct {
	path string
	log  *zap.Logger
	mu   sync.Mutex

	skipped int
}

// NewRegistrationLedger creates a ledger backed by the file at path.
func NewRegistrationLedger(path string, log *zap.Logger) *RegistrationLedger {
	return &RegistrationLedger{path: path, log: log}
}

// read assumes l.mu is held.
func (l *RegistrationLedger) read() ([]models.Registration, error) {
	res, err := csvstore.Read(l.path, 3)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load registration ledger: %w", err)
	}
	if res.Skipped > 0 && res.Skipped != l.skipped {
		l.log.Warn("skipped malformed ledger rows",
			zap.String("file", l.path),
			zap.Int("skipped", res.Skipped))
	}
	l.skipped = res.Skipped

	regs := make([]models.Registration, 0, len(res.Rows))
	for _, row := range res.Rows {
		regs = append(regs, models.Registration{
			StudentID:    row[0],
			EventID:      row[1],
			RegisteredAt: row[2],
		})
	}
	return regs, nil
}

// SkippedRows reports how many rows the last read dropped.
func (l *RegistrationLedger) SkippedRows() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.skipped
}

// IsRegistered reports whether the student has a live entry for the event.
func (l *RegistrationLedger) IsRegistered(ctx context.Context, studentID, eventID string) (bool, error) {
	reg, err := l.Registration(ctx, studentID, eventID)
	if err != nil {
		return false, err
	}
	return reg != nil, nil
}

// Registration returns the student's entry for the event, or nil when the
// student is not registered.
func (l *RegistrationLedger) Registration(ctx context.Context, studentID, eventID string) (*models.Registration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	regs, err := l.read()
	if err != nil {
		return nil, err
	}
	for _, reg := range regs {
		if reg.StudentID == studentID && reg.EventID == eventID {
			r := reg
			return &r, nil
		}
	}
	return nil, nil
}

// Append writes one entry to the end of the ledger, creating the file with
// its header first when needed.
func (l *RegistrationLedger) Append(ctx context.Context, reg models.Registration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	row := []string{reg.StudentID, reg.EventID, reg.RegisteredAt}
	if err := csvstore.Append(l.path, ledgerHeader, row); err != nil {
		return fmt.Errorf("append registration: %w", err)
	}
	return nil
}

// Remove rewrites the ledger without the entries exactly matching the full
// triple. When nothing matches the file is left untouched and false is
// returned.
func (l *RegistrationLedger) Remove(ctx context.Context, reg models.Registration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	regs, err := l.read()
	if err != nil {
		return false, err
	}

	kept := make([][]string, 0, len(regs))
	removed := false
	for _, r := range regs {
		if r.StudentID == reg.StudentID && r.EventID == reg.EventID && r.RegisteredAt == reg.RegisteredAt {
			removed = true
			continue
		}
		kept = append(kept, []string{r.StudentID, r.EventID, r.RegisteredAt})
	}
	if !removed {
		return false, nil
	}
	if err := csvstore.Write(l.path, ledgerHeader, kept); err != nil {
		return false, fmt.Errorf("rewrite registration ledger: %w", err)
	}
	return true, nil
}

// ListByStudent returns the student's entries in ledger order.
func (l *RegistrationLedger) ListByStudent(ctx context.Context, studentID string) ([]models.Registration, error) {
	return l.list(func(r models.Registration) bool { return r.StudentID == studentID })
}

// ListByEvent returns the event's entries in ledger order.
func (l *RegistrationLedger) ListByEvent(ctx context.Context, eventID string) ([]models.Registration, error) {
	return l.list(func(r models.Registration) bool { return r.EventID == eventID })
}

func (l *RegistrationLedger) list(match func(models.Registration) bool) ([]models.Registration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	regs, err := l.read()
	if err != nil {
		return nil, err
	}
	var out []models.Registration
	for _, r := range regs {
		if match(r) {
			out = append(out, r)
		}
	}
	return out, nil
}
