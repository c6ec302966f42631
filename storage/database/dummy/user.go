package dummydb

import (
	"context"
	"time"

	"github.com/trezcool/fotoescola/core"
	"github.com/trezcool/fotoescola/core/user"
)

type userRepository struct {
	db *DB
	t  *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db, t: db.user}
}

func cloneUser(usr user.User) *user.User {
	usr.Roles = copyStrings(usr.Roles)
	usr.PasswordHash = append([]byte(nil), usr.PasswordHash...)
	return &usr
}

// query must be called with the lock held.
func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.t.table))
	for _, u := range repo.t.table {
		users = append(users, *cloneUser(*u))
	}
	return users
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	if err := repo.db.wait(ctx); err != nil {
		return err
	}
	repo.t.RLock()
	defer repo.t.RUnlock()

	excluded := make(map[string]struct{}, len(excludedUsers))
	for _, u := range excludedUsers {
		excluded[u.ID] = struct{}{}
	}
	for _, usr := range repo.t.table {
		if _, ok := excluded[usr.ID]; ok {
			continue
		}
		if username != "" && usr.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if err := repo.db.wait(ctx); err != nil {
		return user.User{}, err
	}
	repo.t.Lock()
	defer repo.t.Unlock()

	repo.t.table[usr.ID] = cloneUser(usr)
	return usr, nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	if err := repo.db.wait(ctx); err != nil {
		return nil, err
	}
	repo.t.RLock()
	defer repo.t.RUnlock()

	users := make([]user.User, 0)
	for _, u := range repo.query() {
		if filter.Match(u) {
			users = append(users, u)
		}
	}
	sortBy(users, ordering, core.DBOrdering{Field: "created_at"}, func(i, j int, field string) int {
		a, b := users[i], users[j]
		switch field {
		case "name":
			return compareStrings(a.Name, b.Name)
		case "username":
			return compareStrings(a.Username, b.Username)
		case "email":
			return compareStrings(a.Email, b.Email)
		case "is_active":
			return compareBools(a.IsActive, b.IsActive)
		case "created_at":
			return compareTimes(a.CreatedAt, b.CreatedAt)
		case "updated_at":
			return compareTimes(a.UpdatedAt, b.UpdatedAt)
		case "last_login":
			return compareTimes(a.LastLogin, b.LastLogin)
		}
		return 0
	})
	return users, nil
}

func (repo *userRepository) getBy(ctx context.Context, match func(u *user.User) bool) (user.User, error) {
	if err := repo.db.wait(ctx); err != nil {
		return user.User{}, err
	}
	repo.t.RLock()
	defer repo.t.RUnlock()

	for _, usr := range repo.t.table {
		if match(usr) {
			return *cloneUser(*usr), nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.getBy(ctx, func(u *user.User) bool { return u.ID == id })
}

func (repo *userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	return repo.getBy(ctx, func(u *user.User) bool { return u.Username == username })
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getBy(ctx, func(u *user.User) bool { return u.Email == email })
}

func (repo *userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	return repo.getBy(ctx, func(u *user.User) bool { return u.Username == username || u.Email == username })
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	if err := repo.db.wait(ctx); err != nil {
		return user.User{}, err
	}
	repo.t.Lock()
	defer repo.t.Unlock()

	// only save set fields
	origUsr, ok := repo.t.table[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if usr.Roles != nil {
		origUsr.Roles = copyStrings(usr.Roles)
	}
	if usr.PasswordHash != nil {
		origUsr.PasswordHash = append([]byte(nil), usr.PasswordHash...)
	}
	if isActive != nil {
		origUsr.IsActive = *isActive
	}
	origUsr.Name = usr.Name
	origUsr.Username = usr.Username
	origUsr.Email = usr.Email
	origUsr.UpdatedAt = usr.UpdatedAt
	return *cloneUser(*origUsr), nil
}

func (repo *userRepository) SetUserLastLogin(ctx context.Context, id string, at time.Time) (user.User, error) {
	if err := repo.db.wait(ctx); err != nil {
		return user.User{}, err
	}
	repo.t.Lock()
	defer repo.t.Unlock()

	usr, ok := repo.t.table[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	usr.LastLogin = at
	return *cloneUser(*usr), nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if err := repo.db.wait(ctx); err != nil {
		return err
	}
	repo.t.Lock()
	defer repo.t.Unlock()
	for _, id := range ids {
		delete(repo.t.table, id)
	}
	return nil
}
