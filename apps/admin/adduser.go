package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/fotoescola/core"
	"github.com/trezcool/fotoescola/core/user"
)

var nowFunc = time.Now // mockable

// addUser updates the user matching uname or email, or creates it.
func (cli *commandLine) addUser(name, uname, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.findUser(ctx, uname, email)
	if err != nil {
		return err
	}
	exists := usr.ID != ""

	now := nowFunc().UTC()
	if !exists {
		usr = user.User{
			ID:        uuid.New().String(),
			Username:  uname,
			Email:     email,
			Roles:     []string{},
			CreatedAt: now,
		}
	}
	if name = core.CleanString(name); name != "" {
		usr.Name = name
	}
	if isAdmin {
		usr.Roles = user.AllRoles
	}
	usr.IsActive = true
	usr.UpdatedAt = now
	if err = usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}

	if exists {
		active := true
		_, err = cli.usrRepo.UpdateUser(ctx, usr, &active)
		if err == nil {
			cli.logger.Infow("user updated", "username", usr.Username)
		}
		return errors.Wrap(err, "updating user")
	}
	if _, err = cli.usrRepo.CreateUser(ctx, usr); err != nil {
		return errors.Wrap(err, "creating user")
	}
	cli.logger.Infow("user created", "username", usr.Username)
	return nil
}

// findUser returns the user matching one of uname or email, or a zero User.
func (cli *commandLine) findUser(ctx context.Context, names ...string) (user.User, error) {
	for _, name := range names {
		usr, err := cli.usrRepo.GetUserByUsernameOrEmail(ctx, name)
		if err == nil {
			return usr, nil
		}
		if errors.Cause(err) != user.ErrNotFound {
			return user.User{}, err
		}
	}
	return user.User{}, nil
}
