package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/resto_admin/internal/models"
	"github.com/Skotchmaster/resto_admin/pkg/domain"
)

var ErrAlreadyExists = errors.New("already exists")

// CreateAccount stores an account without an operator record.
func (r *GormRepo) CreateAccount(ctx context.Context, a *models.Account) error {
	err := createAccount(r.DB.WithContext(ctx), a)
	if errors.Is(err, ErrAlreadyExists) {
		return err
	}
	return wrap("create_account", err)
}

func createAccount(tx *gorm.DB, a *models.Account) error {
	a.Email = strings.ToLower(a.Email)
	res := tx.Where("email = ?", a.Email).FirstOrCreate(a)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (r *GormRepo) AccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var a models.Account
	if err := r.DB.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&a).Error; err != nil {
		return nil, wrap("account_by_email", err)
	}
	return &a, nil
}

func (r *GormRepo) AccountByID(ctx context.Context, id string) (*models.Account, error) {
	var a models.Account
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, wrap("account_by_id", err)
	}
	return &a, nil
}

// Operator returns nil, nil when uid has no operator record.
func (r *GormRepo) Operator(ctx context.Context, uid string) (*domain.Operator, error) {
	var op models.Operator
	err := r.DB.WithContext(ctx).Where("uid = ?", uid).First(&op).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("operator", err)
	}
	d := op.ToDomain()
	return &d, nil
}

func (r *GormRepo) TouchLastLogin(ctx context.Context, uid string, at time.Time) error {
	res := r.DB.WithContext(ctx).Model(&models.Operator{}).Where("uid = ?", uid).Update("last_login", at.UTC())
	if res.Error != nil {
		return wrap("touch_last_login", res.Error)
	}
	if res.RowsAffected == 0 {
		return wrap("touch_last_login", ErrNotFound)
	}
	return nil
}

// CreateOperator writes the account and its operator record together.
func (r *GormRepo) CreateOperator(ctx context.Context, a *models.Account, role domain.Role) (*domain.Operator, error) {
	var op models.Operator
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := createAccount(tx, a); err != nil {
			return err
		}
		op = models.Operator{
			UID:         a.ID,
			Email:       a.Email,
			DisplayName: a.DisplayName,
			Role:        string(role),
		}
		return tx.Create(&op).Error
	})
	if errors.Is(err, ErrAlreadyExists) {
		return nil, err
	}
	if err != nil {
		return nil, wrap("create_operator", err)
	}
	d := op.ToDomain()
	return &d, nil
}

// PromoteOperator grants role to an existing account.
func (r *GormRepo) PromoteOperator(ctx context.Context, a *models.Account, role domain.Role) (*domain.Operator, error) {
	op := models.Operator{UID: a.ID, Email: a.Email, DisplayName: a.DisplayName, Role: string(role)}
	err := r.DB.WithContext(ctx).
		Where(models.Operator{UID: a.ID}).
		Assign(models.Operator{Role: string(role)}).
		FirstOrCreate(&op).Error
	if err != nil {
		return nil, wrap("promote_operator", err)
	}
	d := op.ToDomain()
	return &d, nil
}

func (r *GormRepo) ListOperators(ctx context.Context) ([]domain.Operator, error) {
	var rows []models.Operator
	if err := r.DB.WithContext(ctx).Order("email ASC").Find(&rows).Error; err != nil {
		return nil, wrap("list_operators", err)
	}
	out := make([]domain.Operator, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}
