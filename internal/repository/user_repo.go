package repository

import (
	"context"

	"shoplit/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

var _ domain.UserRepository = (*PostgresUserRepository)(nil)

type PostgresUserRepository struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func NewPostgresUserRepository(db *sqlx.DB, logger *logrus.Logger) *PostgresUserRepository {
	return &PostgresUserRepository{
		db:  db,
		log: logger,
	}
}

const userColumns = `id, name, email, phone, password_hash, is_admin, created_at, updated_at`

func (r *PostgresUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
        INSERT INTO users (name, email, phone, password_hash, is_admin)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`

	r.log.Debugf("Repository: Attempting to create user with email: %s", user.Email)
	err := conn(ctx, r.db).QueryRowxContext(ctx, query, user.Name, user.Email, user.Phone, user.PasswordHash, user.IsAdmin).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			r.log.Warnf("Repository: Attempted to create user with duplicate email: %s", user.Email)
			return domain.Conflict("user with email %s already exists", user.Email)
		}
		r.log.Errorf("Repository: Failed to create user '%s': %v", user.Email, err)
		return translate(err, "user")
	}

	r.log.Infof("Repository: User created successfully with ID: %d, Email: %s", user.ID, user.Email)
	return nil
}

func (r *PostgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &user, query, email); err != nil {
		r.log.Debugf("Repository: Failed to get user by email %s: %v", email, err)
		return nil, translate(err, "user")
	}
	return &user, nil
}

func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &user, query, id); err != nil {
		r.log.Debugf("Repository: Failed to get user by ID %d: %v", id, err)
		return nil, translate(err, "user")
	}
	return &user, nil
}
