package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fekuna/stockinator-service/internal/apperror"
	"github.com/fekuna/stockinator-service/internal/database/postgres"
	"github.com/fekuna/stockinator-service/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// uniqueViolation is the postgres error code raised by idx_invites_pending.
const uniqueViolation = "23505"

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

// Create inserts a pending invite while holding the business row, so
// concurrent invites cannot overbook the vendor seats. Pending invites of
// the business that are already past expiry are marked expired first and
// returned; they hold no seat and must not block a fresh invite.
func (r *PGRepository) Create(ctx context.Context, inv *model.Invite, maxVendors int) ([]model.Invite, error) {
	var expired []model.Invite
	err := postgres.WithTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		var name string
		err := tx.GetContext(ctx, &name, `SELECT name FROM businesses WHERE id = $1 FOR UPDATE`, inv.BusinessID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.ErrBusinessNotFound
		}
		if err != nil {
			return err
		}
		inv.BusinessName = name

		expired = []model.Invite{}
		if err := tx.SelectContext(ctx, &expired, `
            UPDATE invites SET status = 'expired', responded_at = $2
            WHERE business_id = $1 AND status = 'pending' AND expires_at <= $2
            RETURNING *`, inv.BusinessID, inv.CreatedAt); err != nil {
			return err
		}

		var seats int
		if err := tx.GetContext(ctx, &seats, `
            SELECT
                (SELECT COUNT(*) FROM profiles WHERE business_id = $1 AND role = 'vendor') +
                (SELECT COUNT(*) FROM invites WHERE business_id = $1 AND status = 'pending' AND expires_at > $2)`,
			inv.BusinessID, inv.CreatedAt); err != nil {
			return err
		}
		if seats >= maxVendors {
			return apperror.ErrVendorLimit.WithData(map[string]interface{}{"Max": maxVendors})
		}

		_, err = tx.NamedExecContext(ctx, `
            INSERT INTO invites (id, business_id, business_name, invited_by, email, status, created_at, expires_at)
            VALUES (:id, :business_id, :business_name, :invited_by, :email, :status, :created_at, :expires_at)
        `, inv)
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return apperror.ErrInviteDuplicate
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return expired, nil
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Invite, error) {
	var inv model.Invite
	err := r.DB.GetContext(ctx, &inv, `SELECT * FROM invites WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}

func (r *PGRepository) FindPendingByEmail(ctx context.Context, email string, now time.Time) ([]model.Invite, error) {
	invites := []model.Invite{}
	err := r.DB.SelectContext(ctx, &invites, `
        SELECT * FROM invites
        WHERE lower(email) = lower($1) AND status = 'pending' AND expires_at > $2
        ORDER BY created_at DESC`, email, now)
	return invites, err
}

func (r *PGRepository) FindByBusiness(ctx context.Context, businessID string) ([]model.Invite, error) {
	invites := []model.Invite{}
	err := r.DB.SelectContext(ctx, &invites, `
        SELECT * FROM invites WHERE business_id = $1 ORDER BY created_at DESC`, businessID)
	return invites, err
}

func (r *PGRepository) HasPending(ctx context.Context, businessID, email string, now time.Time) (bool, error) {
	var exists bool
	err := r.DB.GetContext(ctx, &exists, `
        SELECT EXISTS (
            SELECT 1 FROM invites
            WHERE business_id = $1 AND lower(email) = lower($2) AND status = 'pending' AND expires_at > $3
        )`, businessID, email, now)
	return exists, err
}

func (r *PGRepository) IsMemberEmail(ctx context.Context, businessID, email string) (bool, error) {
	var exists bool
	err := r.DB.GetContext(ctx, &exists, `
        SELECT EXISTS (
            SELECT 1 FROM profiles WHERE business_id = $1 AND lower(email) = lower($2)
        )`, businessID, email)
	return exists, err
}

func (r *PGRepository) UpdateStatus(ctx context.Context, id string, status model.InviteStatus, at time.Time) (*model.Invite, error) {
	var inv model.Invite
	err := r.DB.GetContext(ctx, &inv, `
        UPDATE invites SET status = $2, responded_at = $3
        WHERE id = $1 AND status = 'pending'
        RETURNING *`, id, status, at)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}

func (r *PGRepository) Accept(ctx context.Context, inv *model.Invite, userID string, maxVendors int, at time.Time) (*model.Profile, error) {
	var profile model.Profile
	err := postgres.WithTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		// Concurrent accepts for one business queue on this row lock.
		var businessID string
		err := tx.GetContext(ctx, &businessID, `SELECT id FROM businesses WHERE id = $1 FOR UPDATE`, inv.BusinessID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.ErrBusinessNotFound
		}
		if err != nil {
			return err
		}

		var vendors int
		if err := tx.GetContext(ctx, &vendors,
			`SELECT COUNT(*) FROM profiles WHERE business_id = $1 AND role = 'vendor'`, inv.BusinessID); err != nil {
			return err
		}
		if vendors >= maxVendors {
			return apperror.ErrVendorLimit.WithData(map[string]interface{}{"Max": maxVendors})
		}

		res, err := tx.ExecContext(ctx, `
            UPDATE invites SET status = 'accepted', responded_at = $2
            WHERE id = $1 AND status = 'pending' AND expires_at > $2`, inv.ID, at)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return apperror.ErrInviteNotPending
		}

		err = tx.GetContext(ctx, &profile, `
            UPDATE profiles SET role = 'vendor', business_id = $1, updated_at = $3
            WHERE id = $2 AND business_id IS NULL
            RETURNING *`, inv.BusinessID, userID, at)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.ErrAlreadyInBusiness
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *PGRepository) ExpireStale(ctx context.Context, now time.Time) ([]model.Invite, error) {
	expired := []model.Invite{}
	err := r.DB.SelectContext(ctx, &expired, `
        UPDATE invites SET status = 'expired', responded_at = $1
        WHERE status = 'pending' AND expires_at <= $1
        RETURNING *`, now)
	return expired, err
}
