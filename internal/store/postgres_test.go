package store

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapPgError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "serialization failure becomes conflict",
			err:  &pgconn.PgError{Code: "40001", Message: "could not serialize access"},
			want: ErrConcurrencyConflict,
		},
		{
			name: "deadlock becomes conflict",
			err:  &pgconn.PgError{Code: "40P01", Message: "deadlock detected"},
			want: ErrConcurrencyConflict,
		},
		{
			name: "wrapped pg error is still recognized",
			err:  errors.Join(errors.New("scope failed"), &pgconn.PgError{Code: "40001"}),
			want: ErrConcurrencyConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapPgError(tt.err); !errors.Is(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}

	t.Run("other pg errors pass through unchanged", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: "23505", Message: "duplicate key"}
		if got := mapPgError(pgErr); got != error(pgErr) {
			t.Fatalf("expected error passed through, got %v", got)
		}
	})

	t.Run("plain errors pass through unchanged", func(t *testing.T) {
		plain := errors.New("connection reset")
		if got := mapPgError(plain); got != plain {
			t.Fatalf("expected error passed through, got %v", got)
		}
	})
}
