package repoerr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	types "github.com/sixtyoneeightyjake/mojocodefinal/internal/domain"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/httpx"
)

// Map folds store failures into domain errors where one applies; everything
// else is returned wrapped with op.
func Map(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, types.ErrConflict),
		errors.Is(err, types.ErrChatNotFound),
		errors.Is(err, types.ErrTokenNotFound):
		return err
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, types.ErrConflict)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.TrimSpace(pgErr.Code) == "23505" {
		return fmt.Errorf("%s: %w: %s", op, types.ErrConflict, pgErr.ConstraintName)
	}
	if httpx.StatusCode(err) == http.StatusConflict {
		return fmt.Errorf("%s: %w: %v", op, types.ErrConflict, err)
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint failed") {
		return fmt.Errorf("%s: %w", op, types.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}
